package models

// Standing is a derived ranking row of a team inside a group. It is never the
// source of truth and is recomputed from completed matches on demand.
type Standing struct {
	TeamID       int    `json:"team_id"`
	TeamName     string `json:"team_name,omitempty"`
	Group        string `json:"group"`
	Rank         int    `json:"rank"`
	Points       int    `json:"points"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	GamesWon     int    `json:"games_won"`
	GamesLost    int    `json:"games_lost"`
	Differential int    `json:"differential"`
	HeadToHead   int    `json:"head_to_head"` // points against teams tied on points
	Seed         *int   `json:"seed,omitempty"`
}
