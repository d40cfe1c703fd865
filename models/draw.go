package models

import "time"

// DrawAssignment is one reveal step of a group draw.
type DrawAssignment struct {
	Step   int    `json:"step"`
	TeamID int    `json:"team_id"`
	Group  string `json:"group"`
	Pot    *int   `json:"pot,omitempty"`
}

// DrawRecord is the persisted, auditable result of a draw.
type DrawRecord struct {
	ID           int              `json:"id,omitempty" db:"id"`
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	StageIndex   int              `json:"stage_index" db:"stage_index"`
	Seed         string           `json:"seed" db:"seed"`
	GroupCount   int              `json:"group_count" db:"group_count"`
	Assignments  []DrawAssignment `json:"assignments" db:"assignments_json"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// Groups rebuilds the group membership from the reveal order.
func (d DrawRecord) Groups() []Group {
	groups := make([]Group, d.GroupCount)
	for i := range groups {
		groups[i].Label = GroupLabel(i)
	}
	index := make(map[string]int, len(groups))
	for i, g := range groups {
		index[g.Label] = i
	}
	for _, a := range d.Assignments {
		if i, ok := index[a.Group]; ok {
			groups[i].TeamIDs = append(groups[i].TeamIDs, a.TeamID)
		}
	}
	return groups
}

// Group is a subdivision of a round robin stage.
type Group struct {
	Label   string `json:"label"`
	TeamIDs []int  `json:"team_ids"`
}
