package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type StageFormat string

const (
	FormatRoundRobin        StageFormat = "round_robin"
	FormatSingleElimination StageFormat = "single_elimination"
	FormatDoubleElimination StageFormat = "double_elimination"
)

func (f StageFormat) IsElimination() bool {
	return f == FormatSingleElimination || f == FormatDoubleElimination
}

func (f StageFormat) Valid() bool {
	return f == FormatRoundRobin || f.IsElimination()
}

// StageSettings is the JSON settings blob stored with a stage.
type StageSettings struct {
	BestOf          int  `json:"best_of"`
	FinalBestOf     *int `json:"final_best_of,omitempty"`
	GroupCount      int  `json:"group_count,omitempty"`
	UpperPerGroup   int  `json:"upper_per_group,omitempty"`
	LowerPerGroup   int  `json:"lower_per_group,omitempty"`
	BestRemaining   int  `json:"best_remaining,omitempty"`
	Legs            int  `json:"legs,omitempty"` // 1 for single round-robin, 2 for double
	ThirdPlaceMatch bool `json:"third_place_match,omitempty"`
}

// ParseStageSettings decodes raw settings. Fractional or non-numeric counts are
// reported as ErrInvalidStageConfig instead of being truncated.
func ParseStageSettings(raw []byte) (StageSettings, error) {
	var settings StageSettings
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		return settings, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return StageSettings{}, fmt.Errorf("%w: field %q must be a whole number", ErrInvalidStageConfig, typeErr.Field)
		}
		return StageSettings{}, fmt.Errorf("%w: %v", ErrInvalidStageConfig, err)
	}
	return settings, nil
}

// Apply copies the settings onto the stage.
func (s StageSettings) Apply(stage *Stage) {
	stage.BestOf = s.BestOf
	stage.FinalBestOf = s.FinalBestOf
	stage.GroupCount = s.GroupCount
	stage.UpperPerGroup = s.UpperPerGroup
	stage.LowerPerGroup = s.LowerPerGroup
	stage.BestRemaining = s.BestRemaining
	stage.Legs = s.Legs
	stage.ThirdPlaceMatch = s.ThirdPlaceMatch
}

// SettingsOf extracts the settings blob of a stage.
func SettingsOf(stage Stage) StageSettings {
	return StageSettings{
		BestOf:          stage.BestOf,
		FinalBestOf:     stage.FinalBestOf,
		GroupCount:      stage.GroupCount,
		UpperPerGroup:   stage.UpperPerGroup,
		LowerPerGroup:   stage.LowerPerGroup,
		BestRemaining:   stage.BestRemaining,
		Legs:            stage.Legs,
		ThirdPlaceMatch: stage.ThirdPlaceMatch,
	}
}
