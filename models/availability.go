package models

import "time"

// Availability is a (date, time-slot) preference a team submitted for a match.
type Availability struct {
	ID           int       `json:"id,omitempty" db:"id"`
	TournamentID int       `json:"tournament_id,omitempty" db:"tournament_id"`
	MatchUID     string    `json:"match_uid" db:"match_uid"`
	TeamID       int       `json:"team_id" db:"team_id"`
	Start        time.Time `json:"start" db:"slot_start"`
}
