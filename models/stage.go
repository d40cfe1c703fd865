package models

import "fmt"

type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
)

// Stage is one phase of a competition.
type Stage struct {
	ID              int         `json:"id" db:"id"`
	TournamentID    int         `json:"tournament_id" db:"tournament_id"`
	Index           int         `json:"index" db:"stage_index"`
	Format          StageFormat `json:"format" db:"format"`
	Status          StageStatus `json:"status" db:"status"`
	BestOf          int         `json:"best_of"`
	FinalBestOf     *int        `json:"final_best_of,omitempty"`
	GroupCount      int         `json:"group_count,omitempty"`
	UpperPerGroup   int         `json:"upper_per_group,omitempty"`
	LowerPerGroup   int         `json:"lower_per_group,omitempty"`
	BestRemaining   int         `json:"best_remaining,omitempty"`
	Legs            int         `json:"legs,omitempty"`
	ThirdPlaceMatch bool        `json:"third_place_match,omitempty"`
}

// ValidBestOf reports whether n is a supported series length.
func ValidBestOf(n int) bool {
	return n == 1 || n == 3 || n == 5
}

// FinalSeries returns the best-of used for the final of an elimination stage.
func (s Stage) FinalSeries() int {
	if s.FinalBestOf != nil {
		return *s.FinalBestOf
	}
	return s.BestOf
}

// LegCount returns 1 or 2.
func (s Stage) LegCount() int {
	if s.Legs == 2 {
		return 2
	}
	return 1
}

// Validate checks the stage before any draw or build is attempted.
// teamsEntering may be 0 when the field size is not known yet; next is the
// following stage, nil for the last one.
func (s Stage) Validate(teamsEntering int, next *Stage) error {
	if !s.Format.Valid() {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidStageConfig, s.Format)
	}
	if !ValidBestOf(s.BestOf) {
		return fmt.Errorf("%w: best_of must be 1, 3 or 5, got %d", ErrInvalidStageConfig, s.BestOf)
	}
	if s.FinalBestOf != nil && !ValidBestOf(*s.FinalBestOf) {
		return fmt.Errorf("%w: final_best_of must be 1, 3 or 5, got %d", ErrInvalidStageConfig, *s.FinalBestOf)
	}
	if s.GroupCount < 0 || s.UpperPerGroup < 0 || s.LowerPerGroup < 0 || s.BestRemaining < 0 {
		return fmt.Errorf("%w: group and advancement counts must not be negative", ErrInvalidStageConfig)
	}
	if s.Legs < 0 || s.Legs > 2 {
		return fmt.Errorf("%w: legs must be 1 or 2, got %d", ErrInvalidStageConfig, s.Legs)
	}
	if teamsEntering < 0 {
		return fmt.Errorf("%w: negative team count", ErrInvalidStageConfig)
	}

	if s.Format != FormatRoundRobin {
		return nil
	}
	if s.GroupCount < 1 {
		return fmt.Errorf("%w: round robin stage needs at least one group", ErrInvalidStageConfig)
	}
	if teamsEntering > 0 && s.GroupCount*2 > teamsEntering {
		return fmt.Errorf("%w: %d groups need at least %d teams, got %d",
			ErrInvalidStageConfig, s.GroupCount, s.GroupCount*2, teamsEntering)
	}
	if next == nil || teamsEntering == 0 {
		return nil
	}

	total := s.AdvancingTotal(teamsEntering)
	if next.Format.IsElimination() && total < 2 {
		return fmt.Errorf("%w: at least 2 teams must advance to the %s stage, configuration advances %d",
			ErrInvalidStageConfig, next.Format, total)
	}
	if total > teamsEntering {
		return fmt.Errorf("%w: %d teams advance but only %d enter the stage", ErrInvalidStageConfig, total, teamsEntering)
	}
	if next.Format == FormatDoubleElimination && s.LowerPerGroup > 0 && s.upperTotal(teamsEntering) < 2 {
		return fmt.Errorf("%w: seeded double elimination needs at least 2 upper bracket advancers", ErrInvalidStageConfig)
	}
	return nil
}

// GroupSizes splits teams into GroupCount groups. The first teams%groups
// groups receive one extra team.
func GroupSizes(teams, groups int) []int {
	if groups <= 0 {
		return nil
	}
	base, rem := teams/groups, teams%groups
	sizes := make([]int, groups)
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}

// AdvancementQuota returns how many teams of a group of groupSize go to the
// upper and lower brackets when teamsEntering teams are spread over the
// stage's groups. Groups holding the remainder (base+1 teams) send
// max(UpperPerGroup, (base+1)-LowerPerGroup) teams to the upper bracket.
func (s Stage) AdvancementQuota(groupSize, teamsEntering int) (upper, lower int) {
	upper, lower = s.UpperPerGroup, s.LowerPerGroup
	if s.GroupCount > 0 {
		base, rem := teamsEntering/s.GroupCount, teamsEntering%s.GroupCount
		if rem > 0 && groupSize == base+1 {
			upper = max(s.UpperPerGroup, (base+1)-s.LowerPerGroup)
		}
	}
	upper = min(upper, groupSize)
	lower = min(lower, groupSize-upper)
	return upper, lower
}

// AdvancingTotal counts every team leaving the stage through any path.
func (s Stage) AdvancingTotal(teamsEntering int) int {
	total, pool := 0, 0
	for _, size := range GroupSizes(teamsEntering, s.GroupCount) {
		upper, lower := s.AdvancementQuota(size, teamsEntering)
		total += upper + lower
		pool += size - upper - lower
	}
	return total + min(s.BestRemaining, pool)
}

func (s Stage) upperTotal(teamsEntering int) int {
	if s.LowerPerGroup == 0 {
		return s.AdvancingTotal(teamsEntering)
	}
	total := 0
	for _, size := range GroupSizes(teamsEntering, s.GroupCount) {
		upper, _ := s.AdvancementQuota(size, teamsEntering)
		total += upper
	}
	return total
}

// GroupLabel returns the alphabetical label of the i-th group: A..Z, AA, AB...
func GroupLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}
