package scheduling

import (
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// CadenceConfig drives the fixed-cadence scheduler.
type CadenceConfig struct {
	Start         time.Time     `json:"start"`
	MatchesPerDay int           `json:"matches_per_day"`
	Gap           time.Duration `json:"gap"`
}

func (c CadenceConfig) Validate() error {
	if c.Start.IsZero() {
		return fmt.Errorf("%w: start time is required", models.ErrInvalidScheduleConfig)
	}
	if c.MatchesPerDay < 1 {
		return fmt.Errorf("%w: matches per day must be positive, got %d", models.ErrInvalidScheduleConfig, c.MatchesPerDay)
	}
	if c.Gap < 0 {
		return fmt.Errorf("%w: gap must not be negative", models.ErrInvalidScheduleConfig)
	}
	if time.Duration(c.MatchesPerDay-1)*c.Gap >= 24*time.Hour {
		return fmt.Errorf("%w: %d matches %s apart do not fit in one day",
			models.ErrInvalidScheduleConfig, c.MatchesPerDay, c.Gap)
	}
	return nil
}

// AutoSchedule gives every unresolved, unscheduled match a time in round then
// sequence order: Start, Start+Gap, ... until MatchesPerDay is reached, then
// the next day at the same start time. Slot times already held by a
// scheduled match are skipped, so repeated passes never stack matches.
func AutoSchedule(matches []*models.Match, cfg CadenceConfig) (Plan, error) {
	if err := cfg.Validate(); err != nil {
		return Plan{}, err
	}
	taken := make(map[int64]bool)
	for _, m := range matches {
		if m.ScheduledAt != nil {
			taken[m.ScheduledAt.Unix()] = true
		}
	}
	slotAt := func(slot int) time.Time {
		day, k := slot/cfg.MatchesPerDay, slot%cfg.MatchesPerDay
		return cfg.Start.AddDate(0, 0, day).Add(time.Duration(k) * cfg.Gap)
	}

	var plan Plan
	slot := 0
	for _, m := range playOrder(matches) {
		if m.Resolved() || m.ScheduledAt != nil {
			continue
		}
		for taken[slotAt(slot).Unix()] {
			slot++
		}
		plan.Assignments = append(plan.Assignments, Assignment{MatchUID: m.UID, At: slotAt(slot)})
		slot++
	}
	return plan, nil
}
