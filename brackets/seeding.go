package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

// SeedPositions returns seed numbers in bracket order for a field of size
// (a power of two): seed k meets seed size+1-k in round one and the top two
// seeds sit in opposite halves, recursively.
//
// SeedPositions(8) = [1 8 4 5 2 7 3 6]
func SeedPositions(size int) []int {
	positions := []int{1}
	for len(positions) < size {
		n := len(positions) * 2
		next := make([]int, 0, n)
		for _, p := range positions {
			next = append(next, p, n+1-p)
		}
		positions = next
	}
	return positions
}

// bracketSize returns the padded field size and the number of rounds.
func bracketSize(n int) (size, rounds int) {
	size = 1
	for size < n {
		size <<= 1
		rounds++
	}
	return size, rounds
}

// seededSlots places teams on SeedPositions; seeds beyond the field are byes,
// so byes always face the top seeds.
func seededSlots(teams []models.Team, size int) []models.Slot {
	slots := make([]models.Slot, size)
	for i, seed := range SeedPositions(size) {
		if seed <= len(teams) {
			slots[i] = models.TeamSlot(teams[seed-1].ID)
		} else {
			slots[i] = models.ByeSlot()
		}
	}
	return slots
}

// builder assembles a bracket before byes are collapsed.
type builder struct {
	b *Bracket
}

func newBuilder(stageIndex int, format models.StageFormat) *builder {
	return &builder{b: NewBracket(stageIndex, format)}
}

func (bl *builder) match(uid string, side models.BracketSide, round, order, bestOf int) *models.Match {
	m := &models.Match{
		UID:    uid,
		Side:   side,
		Round:  round,
		Order:  order,
		BestOf: bestOf,
		Status: models.MatchStatusPending,
	}
	bl.b.Add(m)
	return m
}

// link sends one outcome of from into a slot of to.
func (bl *builder) link(from *models.Match, outcome models.Outcome, to *models.Match, slot int) {
	l := &models.Link{MatchUID: to.UID, Slot: slot}
	if outcome == models.OutcomeWinner {
		from.WinnerTo = l
	} else {
		from.LoserTo = l
	}
	to.Slots[slot] = models.PendingSlot(from.UID, outcome)
}

// eliminationRounds builds a complete knockout tree over first-round slots.
// rounds[r-1] holds the matches of round r in order.
func (bl *builder) eliminationRounds(prefix string, side models.BracketSide, first []models.Slot, bestOf func(round, total int) int) [][]*models.Match {
	total := 0
	for n := len(first); n > 1; n >>= 1 {
		total++
	}
	rounds := make([][]*models.Match, total)
	for r := 1; r <= total; r++ {
		count := len(first) >> r
		rounds[r-1] = make([]*models.Match, count)
		for i := 0; i < count; i++ {
			m := bl.match(fmt.Sprintf("%sR%dM%d", prefix, r, i+1), side, r, i+1, bestOf(r, total))
			if r == 1 {
				m.Slots = [2]models.Slot{first[2*i], first[2*i+1]}
			} else {
				bl.link(rounds[r-2][2*i], models.OutcomeWinner, m, 0)
				bl.link(rounds[r-2][2*i+1], models.OutcomeWinner, m, 1)
			}
			rounds[r-1][i] = m
		}
	}
	return rounds
}

// collapseByes removes every match that cannot be played because one side
// is a bye. A team facing a bye advances at build time; a pending side
// facing a bye is rewired straight to the match's winner destination.
// Terminal matches are never rewired: a team facing a bye there wins by
// walkover and a double bye drops the match.
func (bl *builder) collapseByes() {
	for {
		m := bl.nextCollapsible()
		if m == nil {
			return
		}
		s0, s1 := m.Slots[0], m.Slots[1]
		switch {
		case s0.IsBye() && s1.IsBye():
			bl.fill(m.WinnerTo, models.ByeSlot())
			bl.fill(m.LoserTo, models.ByeSlot())
			bl.b.Remove(m.UID)
		case m.Terminal && (s0.IsTeam() || s1.IsTeam()):
			winner := s0.Team() + s1.Team()
			m.WinnerID = &winner
			m.Status = models.MatchStatusForfeited
		case s0.IsTeam() || s1.IsTeam():
			bl.fill(m.WinnerTo, models.TeamSlot(s0.Team()+s1.Team()))
			bl.fill(m.LoserTo, models.ByeSlot())
			bl.b.Remove(m.UID)
		default:
			pending := s0
			if s0.IsBye() {
				pending = s1
			}
			src := bl.b.index[pending.From.MatchUID]
			if pending.From.Outcome == models.OutcomeWinner {
				src.WinnerTo = m.WinnerTo
			} else {
				src.LoserTo = m.WinnerTo
			}
			if m.WinnerTo != nil {
				bl.fill(m.WinnerTo, pending)
			}
			bl.fill(m.LoserTo, models.ByeSlot())
			bl.b.Remove(m.UID)
		}
	}
}

func (bl *builder) nextCollapsible() *models.Match {
	for _, m := range bl.b.Matches {
		if m.Resolved() {
			continue
		}
		s0, s1 := m.Slots[0], m.Slots[1]
		if !s0.IsBye() && !s1.IsBye() {
			continue
		}
		pendingSide := s0.Kind == models.SlotTBD || s1.Kind == models.SlotTBD
		if m.Terminal && pendingSide {
			continue
		}
		return m
	}
	return nil
}

func (bl *builder) fill(link *models.Link, slot models.Slot) {
	if link == nil {
		return
	}
	if target, ok := bl.b.index[link.MatchUID]; ok {
		target.Slots[link.Slot] = slot
	}
}
