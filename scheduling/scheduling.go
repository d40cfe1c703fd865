// Package scheduling assigns match times by fixed cadence or from team
// availability and detects overlapping matches.
package scheduling

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// DefaultMatchDuration is the window inside which two matches of the same
// team conflict.
const DefaultMatchDuration = 60 * time.Minute

// Assignment is a planned start time for one match.
type Assignment struct {
	MatchUID string    `json:"match_uid"`
	At       time.Time `json:"at"`
}

// Unschedulable explains why a match could not be given a time.
type Unschedulable struct {
	MatchUID string `json:"match_uid"`
	Reason   string `json:"reason"`
}

// Plan is the result of a scheduling pass.
type Plan struct {
	Assignments   []Assignment    `json:"assignments"`
	Unschedulable []Unschedulable `json:"unschedulable,omitempty"`
}

// Apply writes planned times onto the matches they refer to and returns the
// matches that changed.
func (p Plan) Apply(matches []*models.Match) []*models.Match {
	byUID := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		byUID[m.UID] = m
	}
	var changed []*models.Match
	for _, a := range p.Assignments {
		if m, ok := byUID[a.MatchUID]; ok {
			at := a.At
			m.ScheduledAt = &at
			changed = append(changed, m)
		}
	}
	return changed
}

var sideOrder = map[models.BracketSide]int{
	models.SideGroup:      0,
	models.SideWinners:    1,
	models.SideLosers:     2,
	models.SideGrandFinal: 3,
}

// playOrder sorts a copy of matches by round, then bracket side, group and
// position in round.
func playOrder(matches []*models.Match) []*models.Match {
	out := append([]*models.Match(nil), matches...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if sideOrder[a.Side] != sideOrder[b.Side] {
			return sideOrder[a.Side] < sideOrder[b.Side]
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Order < b.Order
	})
	return out
}

func teamsOf(m *models.Match) []int {
	var ids []int
	for _, s := range m.Slots {
		if s.IsTeam() {
			ids = append(ids, s.Team())
		}
	}
	return ids
}
