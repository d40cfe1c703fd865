package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

// Bracket is the match graph of one stage. Forward links (WinnerTo/LoserTo)
// are fixed when the bracket is built and are only ever followed, never
// re-derived from round or order numbers.
type Bracket struct {
	StageIndex  int                 `json:"stage_index"`
	Format      models.StageFormat  `json:"format"`
	Matches     []*models.Match     `json:"matches"`
	Corrections []models.Correction `json:"corrections,omitempty"`

	index     map[string]*models.Match
	withdrawn map[int]bool
}

func NewBracket(stageIndex int, format models.StageFormat) *Bracket {
	return &Bracket{
		StageIndex: stageIndex,
		Format:     format,
		Matches:    make([]*models.Match, 0),
		index:      make(map[string]*models.Match),
		withdrawn:  make(map[int]bool),
	}
}

// Restore rebuilds a bracket from persisted matches and validates its links.
func Restore(stageIndex int, format models.StageFormat, matches []*models.Match, withdrawn []int) (*Bracket, error) {
	b := NewBracket(stageIndex, format)
	for _, m := range matches {
		if _, dup := b.index[m.UID]; dup {
			return nil, fmt.Errorf("%w: duplicate match uid %s", models.ErrUnresolvedSlot, m.UID)
		}
		b.Add(m)
	}
	for _, id := range withdrawn {
		b.withdrawn[id] = true
	}
	b.Sort()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bracket) Add(m *models.Match) {
	m.StageIndex = b.StageIndex
	b.Matches = append(b.Matches, m)
	b.index[m.UID] = m
}

// Remove drops a match from the bracket.
func (b *Bracket) Remove(uid string) {
	delete(b.index, uid)
	for i, m := range b.Matches {
		if m.UID == uid {
			b.Matches = append(b.Matches[:i], b.Matches[i+1:]...)
			return
		}
	}
}

// Match looks a match up by UID.
func (b *Bracket) Match(uid string) (*models.Match, error) {
	m, ok := b.index[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrMatchNotFound, uid)
	}
	return m, nil
}

// Follow returns the match a link points to.
func (b *Bracket) Follow(link *models.Link) (*models.Match, error) {
	if link == nil {
		return nil, models.ErrUnresolvedSlot
	}
	m, ok := b.index[link.MatchUID]
	if !ok || link.Slot < 0 || link.Slot > 1 {
		return nil, fmt.Errorf("%w: link to %s slot %d", models.ErrUnresolvedSlot, link.MatchUID, link.Slot)
	}
	return m, nil
}

func (b *Bracket) MarkWithdrawn(teamID int) {
	b.withdrawn[teamID] = true
}

func (b *Bracket) IsWithdrawn(teamID int) bool {
	return b.withdrawn[teamID]
}

// MatchesOf returns every match a team currently occupies, in bracket order.
func (b *Bracket) MatchesOf(teamID int) []*models.Match {
	var out []*models.Match
	for _, m := range b.Matches {
		if m.Involves(teamID) {
			out = append(out, m)
		}
	}
	return out
}

// TeamIDs lists every team placed somewhere in the bracket.
func (b *Bracket) TeamIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, m := range b.Matches {
		for _, s := range m.Slots {
			if s.IsTeam() && !seen[s.Team()] {
				seen[s.Team()] = true
				ids = append(ids, s.Team())
			}
		}
	}
	sort.Ints(ids)
	return ids
}

// Groups returns the matches of a round robin bracket keyed by group label.
func (b *Bracket) Groups() map[string][]*models.Match {
	groups := make(map[string][]*models.Match)
	for _, m := range b.Matches {
		if m.Side == models.SideGroup {
			groups[m.Group] = append(groups[m.Group], m)
		}
	}
	return groups
}

// Final returns the match that decides the stage: the grand final reset when
// it exists, otherwise the grand final or single elimination final.
func (b *Bracket) Final() *models.Match {
	var final *models.Match
	for _, m := range b.Matches {
		switch m.Label {
		case models.LabelGrandFinalReset:
			return m
		case models.LabelGrandFinal, models.LabelFinal:
			final = m
		}
	}
	return final
}

// Clone returns a deep copy of the bracket.
func (b *Bracket) Clone() *Bracket {
	c := NewBracket(b.StageIndex, b.Format)
	for _, m := range b.Matches {
		c.Add(m.Clone())
	}
	for id := range b.withdrawn {
		c.withdrawn[id] = true
	}
	c.Corrections = append(c.Corrections, b.Corrections...)
	return c
}

var sideRank = map[models.BracketSide]int{
	models.SideGroup:      0,
	models.SideWinners:    1,
	models.SideLosers:     2,
	models.SideGrandFinal: 3,
}

// Sort orders matches by side, group, round and order in round.
func (b *Bracket) Sort() {
	sort.SliceStable(b.Matches, func(i, j int) bool {
		a, c := b.Matches[i], b.Matches[j]
		if sideRank[a.Side] != sideRank[c.Side] {
			return sideRank[a.Side] < sideRank[c.Side]
		}
		if a.Group != c.Group {
			return a.Group < c.Group
		}
		if a.Round != c.Round {
			return a.Round < c.Round
		}
		return a.Order < c.Order
	})
}

// Validate checks that every forward link and every pending slot resolves.
func (b *Bracket) Validate() error {
	for _, m := range b.Matches {
		if !m.Terminal && m.WinnerTo == nil {
			return fmt.Errorf("%w: match %s has no winner destination", models.ErrUnresolvedSlot, m.UID)
		}
		for _, l := range []struct {
			link    *models.Link
			outcome models.Outcome
		}{{m.WinnerTo, models.OutcomeWinner}, {m.LoserTo, models.OutcomeLoser}} {
			if l.link == nil {
				continue
			}
			target, err := b.Follow(l.link)
			if err != nil {
				return fmt.Errorf("match %s: %w", m.UID, err)
			}
			slot := target.Slots[l.link.Slot]
			if slot.Kind == models.SlotTBD && (slot.From == nil || slot.From.MatchUID != m.UID || slot.From.Outcome != l.outcome) {
				return fmt.Errorf("%w: %s slot %d is not fed by %s", models.ErrUnresolvedSlot, target.UID, l.link.Slot, m.UID)
			}
		}
		for i, s := range m.Slots {
			if s.Kind != models.SlotTBD {
				continue
			}
			if s.From == nil {
				return fmt.Errorf("%w: %s slot %d has no source", models.ErrUnresolvedSlot, m.UID, i)
			}
			src, ok := b.index[s.From.MatchUID]
			if !ok {
				return fmt.Errorf("%w: %s slot %d source %s is missing", models.ErrUnresolvedSlot, m.UID, i, s.From.MatchUID)
			}
			link := src.WinnerTo
			if s.From.Outcome == models.OutcomeLoser {
				link = src.LoserTo
			}
			if link == nil || link.MatchUID != m.UID || link.Slot != i {
				return fmt.Errorf("%w: %s does not link back to %s slot %d", models.ErrUnresolvedSlot, src.UID, m.UID, i)
			}
		}
	}
	return nil
}
