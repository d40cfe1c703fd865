package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

const (
	ReasonNoAvailability   = "no availability submitted"
	ReasonOneSide          = "only one side has submitted"
	ReasonNoOverlap        = "no overlapping availability"
	ReasonNotDetermined    = "participants not yet determined"
	ReasonAllSlotsConflict = "every shared slot is too close to another match of a participant"
)

// AvailabilityConfig drives the availability planner.
type AvailabilityConfig struct {
	// Gap is the minimum distance between two matches of the same team.
	Gap time.Duration `json:"gap"`
}

// PlanAvailability picks, for each pending match, the earliest start time
// both teams submitted that keeps Gap to every other match of either team,
// including times assigned earlier in the same pass. Matches without such a
// time are reported with a reason instead of failing the batch.
func PlanAvailability(matches []*models.Match, prefs []models.Availability, cfg AvailabilityConfig) (Plan, error) {
	if cfg.Gap < 0 {
		return Plan{}, fmt.Errorf("%w: gap must not be negative", models.ErrInvalidScheduleConfig)
	}

	submitted := make(map[string]map[int][]time.Time)
	for _, p := range prefs {
		if submitted[p.MatchUID] == nil {
			submitted[p.MatchUID] = make(map[int][]time.Time)
		}
		submitted[p.MatchUID][p.TeamID] = append(submitted[p.MatchUID][p.TeamID], p.Start)
	}

	busy := make(map[int][]time.Time)
	for _, m := range matches {
		if m.ScheduledAt == nil {
			continue
		}
		for _, id := range teamsOf(m) {
			busy[id] = append(busy[id], *m.ScheduledAt)
		}
	}

	var plan Plan
	for _, m := range playOrder(matches) {
		if m.Resolved() || m.ScheduledAt != nil {
			continue
		}
		if !m.Ready() {
			plan.Unschedulable = append(plan.Unschedulable, Unschedulable{MatchUID: m.UID, Reason: ReasonNotDetermined})
			continue
		}
		a, b := m.Slots[0].Team(), m.Slots[1].Team()
		slotsA, slotsB := submitted[m.UID][a], submitted[m.UID][b]
		switch {
		case len(slotsA) == 0 && len(slotsB) == 0:
			plan.Unschedulable = append(plan.Unschedulable, Unschedulable{MatchUID: m.UID, Reason: ReasonNoAvailability})
			continue
		case len(slotsA) == 0 || len(slotsB) == 0:
			plan.Unschedulable = append(plan.Unschedulable, Unschedulable{MatchUID: m.UID, Reason: ReasonOneSide})
			continue
		}

		shared := intersect(slotsA, slotsB)
		if len(shared) == 0 {
			plan.Unschedulable = append(plan.Unschedulable, Unschedulable{MatchUID: m.UID, Reason: ReasonNoOverlap})
			continue
		}
		picked := false
		for _, at := range shared {
			if clashes(busy[a], at, cfg.Gap) || clashes(busy[b], at, cfg.Gap) {
				continue
			}
			plan.Assignments = append(plan.Assignments, Assignment{MatchUID: m.UID, At: at})
			busy[a] = append(busy[a], at)
			busy[b] = append(busy[b], at)
			picked = true
			break
		}
		if !picked {
			plan.Unschedulable = append(plan.Unschedulable, Unschedulable{MatchUID: m.UID, Reason: ReasonAllSlotsConflict})
		}
	}
	return plan, nil
}

// intersect returns the times present in both lists, ascending and unique.
func intersect(a, b []time.Time) []time.Time {
	inB := make(map[int64]bool, len(b))
	for _, t := range b {
		inB[t.UnixNano()] = true
	}
	seen := make(map[int64]bool)
	var out []time.Time
	for _, t := range a {
		key := t.UnixNano()
		if inB[key] && !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// clashes reports whether at reuses a taken time or falls within gap of one.
func clashes(taken []time.Time, at time.Time, gap time.Duration) bool {
	for _, t := range taken {
		d := at.Sub(t)
		if d < 0 {
			d = -d
		}
		if d == 0 || d < gap {
			return true
		}
	}
	return false
}
