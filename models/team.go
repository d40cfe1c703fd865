package models

import (
	"sort"
	"time"
)

// Team is an approved entrant of a tournament.
type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Seed         *int      `json:"seed,omitempty" db:"seed"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	Withdrawn    bool      `json:"withdrawn" db:"withdrawn"`
}

// OrderTeams returns a copy of teams ordered by seed. Unseeded teams go last,
// ties are broken by registration order and then by ID.
func OrderTeams(teams []Team) []Team {
	ordered := make([]Team, len(teams))
	copy(ordered, teams)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case a.Seed != nil && b.Seed != nil && *a.Seed != *b.Seed:
			return *a.Seed < *b.Seed
		case a.Seed != nil && b.Seed == nil:
			return true
		case a.Seed == nil && b.Seed != nil:
			return false
		}
		if !a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.RegisteredAt.Before(b.RegisteredAt)
		}
		return a.ID < b.ID
	})
	return ordered
}

// TeamIndex maps team IDs to teams.
func TeamIndex(teams []Team) map[int]Team {
	idx := make(map[int]Team, len(teams))
	for _, t := range teams {
		idx[t.ID] = t
	}
	return idx
}

// SeedRank returns the seed used for tie-breaking. Unseeded teams rank after every seed.
func (t Team) SeedRank() int {
	if t.Seed == nil {
		return int(^uint(0) >> 1)
	}
	return *t.Seed
}
