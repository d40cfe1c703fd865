package scheduling

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// Conflict is a pair of scheduled matches of one team starting less than a
// match duration apart. First always starts no later than Second.
type Conflict struct {
	First   string    `json:"first"`
	Second  string    `json:"second"`
	TeamIDs []int     `json:"team_ids"`
	FirstAt time.Time `json:"first_at"`
	Gap     string    `json:"gap"`
}

// DetectConflicts reports every offending pair, not just the first one.
// A duration of zero or less means DefaultMatchDuration. Matches exactly one
// duration apart do not conflict.
func DetectConflicts(matches []*models.Match, duration time.Duration) []Conflict {
	if duration <= 0 {
		duration = DefaultMatchDuration
	}
	scheduled := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.ScheduledAt != nil && len(teamsOf(m)) > 0 {
			scheduled = append(scheduled, m)
		}
	}
	sort.SliceStable(scheduled, func(i, j int) bool {
		a, b := scheduled[i], scheduled[j]
		if !a.ScheduledAt.Equal(*b.ScheduledAt) {
			return a.ScheduledAt.Before(*b.ScheduledAt)
		}
		return a.UID < b.UID
	})

	var out []Conflict
	for i, a := range scheduled {
		for _, b := range scheduled[i+1:] {
			gap := b.ScheduledAt.Sub(*a.ScheduledAt)
			if gap >= duration {
				break
			}
			if shared := sharedTeams(a, b); len(shared) > 0 {
				out = append(out, Conflict{
					First:   a.UID,
					Second:  b.UID,
					TeamIDs: shared,
					FirstAt: *a.ScheduledAt,
					Gap:     gap.String(),
				})
			}
		}
	}
	return out
}

func sharedTeams(a, b *models.Match) []int {
	var shared []int
	for _, x := range teamsOf(a) {
		for _, y := range teamsOf(b) {
			if x == y {
				shared = append(shared, x)
			}
		}
	}
	sort.Ints(shared)
	return shared
}
