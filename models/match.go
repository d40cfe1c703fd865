package models

import "time"

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusOngoing   MatchStatus = "ongoing"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusDisputed  MatchStatus = "disputed"
	MatchStatusForfeited MatchStatus = "forfeited"
)

// BracketSide tags the branch of a bracket a match belongs to.
type BracketSide string

const (
	SideWinners    BracketSide = "winners"
	SideLosers     BracketSide = "losers"
	SideGrandFinal BracketSide = "grand_final"
	SideGroup      BracketSide = "group"
)

type SlotKind string

const (
	SlotTeam SlotKind = "team"
	SlotTBD  SlotKind = "tbd"
	SlotBye  SlotKind = "bye"
)

// Outcome says which result of a source match feeds a slot.
type Outcome string

const (
	OutcomeWinner Outcome = "winner"
	OutcomeLoser  Outcome = "loser"
)

const (
	LabelFinal           = "final"
	LabelSemifinal       = "semifinal"
	LabelThirdPlace      = "third_place"
	LabelGrandFinal      = "grand_final"
	LabelGrandFinalReset = "grand_final_reset"
)

// SlotSource points back at the match whose result fills a slot.
type SlotSource struct {
	MatchUID string  `json:"match_uid"`
	Outcome  Outcome `json:"outcome"`
}

// Slot is one side of a match.
type Slot struct {
	Kind   SlotKind    `json:"kind"`
	TeamID *int        `json:"team_id,omitempty"`
	From   *SlotSource `json:"from,omitempty"`
}

// Link is a forward reference into a slot (0 or 1) of a later match.
type Link struct {
	MatchUID string `json:"match_uid"`
	Slot     int    `json:"slot"`
}

type Match struct {
	ID           int         `json:"id,omitempty" db:"id"`
	TournamentID int         `json:"tournament_id,omitempty" db:"tournament_id"`
	StageIndex   int         `json:"stage_index" db:"stage_index"`
	UID          string      `json:"uid" db:"bracket_match_uid"`
	Side         BracketSide `json:"side" db:"side"`
	Group        string      `json:"group,omitempty" db:"group_label"`
	Round        int         `json:"round" db:"round"`
	Order        int         `json:"order" db:"order_in_round"`
	Label        string      `json:"label,omitempty" db:"label"`
	Slots        [2]Slot     `json:"slots" db:"slots_json"`
	BestOf       int         `json:"best_of" db:"best_of"`
	Status       MatchStatus `json:"status" db:"status"`
	Scores       [2]*int     `json:"scores" db:"-"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_team_id"`
	WinnerTo     *Link       `json:"winner_to,omitempty" db:"-"`
	LoserTo      *Link       `json:"loser_to,omitempty" db:"-"`
	Terminal     bool        `json:"terminal,omitempty" db:"terminal"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	UpdatedAt    time.Time   `json:"updated_at,omitempty" db:"updated_at"`
}

func TeamSlot(teamID int) Slot {
	id := teamID
	return Slot{Kind: SlotTeam, TeamID: &id}
}

func ByeSlot() Slot {
	return Slot{Kind: SlotBye}
}

func PendingSlot(sourceUID string, outcome Outcome) Slot {
	return Slot{Kind: SlotTBD, From: &SlotSource{MatchUID: sourceUID, Outcome: outcome}}
}

func (s Slot) IsTeam() bool { return s.Kind == SlotTeam && s.TeamID != nil }

func (s Slot) IsBye() bool { return s.Kind == SlotBye }

// Team returns the occupant ID or 0.
func (s Slot) Team() int {
	if s.IsTeam() {
		return *s.TeamID
	}
	return 0
}

// Ready reports whether both occupants are known teams.
func (m *Match) Ready() bool {
	return m.Slots[0].IsTeam() && m.Slots[1].IsTeam()
}

// Resolved reports whether the match has a final outcome.
func (m *Match) Resolved() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusForfeited
}

// Involves reports whether teamID occupies one of the slots.
func (m *Match) Involves(teamID int) bool {
	return m.Slots[0].Team() == teamID || m.Slots[1].Team() == teamID
}

// SlotOf returns the slot index of teamID, or -1.
func (m *Match) SlotOf(teamID int) int {
	for i, s := range m.Slots {
		if s.Team() == teamID {
			return i
		}
	}
	return -1
}

// LoserID returns the team that lost a resolved two-team match, or 0.
func (m *Match) LoserID() int {
	if m.WinnerID == nil || !m.Ready() {
		return 0
	}
	if m.Slots[0].Team() == *m.WinnerID {
		return m.Slots[1].Team()
	}
	return m.Slots[0].Team()
}

// Clone returns a deep copy.
func (m *Match) Clone() *Match {
	c := *m
	for i := range c.Slots {
		if m.Slots[i].TeamID != nil {
			id := *m.Slots[i].TeamID
			c.Slots[i].TeamID = &id
		}
		if m.Slots[i].From != nil {
			from := *m.Slots[i].From
			c.Slots[i].From = &from
		}
		if m.Scores[i] != nil {
			score := *m.Scores[i]
			c.Scores[i] = &score
		}
	}
	if m.WinnerID != nil {
		w := *m.WinnerID
		c.WinnerID = &w
	}
	if m.WinnerTo != nil {
		l := *m.WinnerTo
		c.WinnerTo = &l
	}
	if m.LoserTo != nil {
		l := *m.LoserTo
		c.LoserTo = &l
	}
	if m.ScheduledAt != nil {
		t := *m.ScheduledAt
		c.ScheduledAt = &t
	}
	return &c
}

// Correction records a dispute resolution that rewrote a result.
type Correction struct {
	ID             int       `json:"id,omitempty" db:"id"`
	TournamentID   int       `json:"tournament_id,omitempty" db:"tournament_id"`
	MatchUID       string    `json:"match_uid" db:"match_uid"`
	PreviousWinner *int      `json:"previous_winner,omitempty" db:"previous_winner"`
	NewWinner      *int      `json:"new_winner,omitempty" db:"new_winner"`
	PreviousScores [2]*int   `json:"previous_scores" db:"-"`
	NewScores      [2]*int   `json:"new_scores" db:"-"`
	Note           string    `json:"note" db:"note"`
	At             time.Time `json:"at" db:"created_at"`
}
