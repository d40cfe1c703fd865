// Package progression is the match state machine: it records results and
// pushes winners and losers along the forward links of a bracket.
package progression

import (
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

// Report is a per-match notice that needs an organizer's attention.
type Report struct {
	MatchUID string `json:"match_uid"`
	Reason   string `json:"reason"`
}

// Outcome summarises one state transition.
type Outcome struct {
	Changed       []*models.Match    `json:"changed"`
	Removed       []string           `json:"removed,omitempty"`
	Reports       []Report           `json:"reports,omitempty"`
	ResetCreated  bool               `json:"reset_created,omitempty"`
	StageComplete bool               `json:"stage_complete"`
	Correction    *models.Correction `json:"correction,omitempty"`
}

// Controller applies transitions to one bracket. It is not safe for
// concurrent use; callers serialise mutations per tournament.
type Controller struct {
	bracket *brackets.Bracket
	now     func() time.Time

	changed []string
	removed []string
	seen    map[string]bool
	reports []Report
	reset   bool
}

func New(b *brackets.Bracket) *Controller {
	return &Controller{bracket: b, now: time.Now}
}

// WithClock replaces the clock used for UpdatedAt and correction stamps.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

func (c *Controller) Bracket() *brackets.Bracket {
	return c.bracket
}

// ValidateScore checks a result against best-of arithmetic and returns the
// winning slot. The winner must reach ⌈bestOf/2⌉ and the loser stay below it.
func ValidateScore(bestOf, a, b int) (int, error) {
	if !models.ValidBestOf(bestOf) {
		return -1, fmt.Errorf("%w: unsupported best-of %d", models.ErrInvalidScore, bestOf)
	}
	need := (bestOf + 1) / 2
	switch {
	case a == need && b >= 0 && b < need:
		return 0, nil
	case b == need && a >= 0 && a < need:
		return 1, nil
	}
	return -1, fmt.Errorf("%w: %d-%d is not a best-of-%d result", models.ErrInvalidScore, a, b, bestOf)
}

// StartMatch marks a ready match as ongoing.
func (c *Controller) StartMatch(uid string) (Outcome, error) {
	m, err := c.playable(uid)
	if err != nil {
		return Outcome{}, err
	}
	if m.Status != models.MatchStatusPending {
		return Outcome{}, fmt.Errorf("%w: match %s is %s", models.ErrInvalidTransition, uid, m.Status)
	}
	c.begin()
	m.Status = models.MatchStatusOngoing
	c.touch(m)
	return c.finish(), nil
}

// ApplyResult records a played result and advances both teams.
func (c *Controller) ApplyResult(uid string, scoreA, scoreB int) (Outcome, error) {
	m, err := c.playable(uid)
	if err != nil {
		return Outcome{}, err
	}
	winnerSlot, err := ValidateScore(m.BestOf, scoreA, scoreB)
	if err != nil {
		return Outcome{}, err
	}
	c.begin()
	m.Scores = [2]*int{&scoreA, &scoreB}
	c.resolve(m, models.MatchStatusCompleted, m.Slots[winnerSlot].Team())
	return c.finish(), nil
}

// Forfeit awards a ready match to winnerID without play, e.g. on a no-show.
func (c *Controller) Forfeit(uid string, winnerID int) (Outcome, error) {
	m, err := c.playable(uid)
	if err != nil {
		return Outcome{}, err
	}
	if m.SlotOf(winnerID) < 0 {
		return Outcome{}, fmt.Errorf("%w: team %d does not play match %s", models.ErrTeamNotInBracket, winnerID, uid)
	}
	c.begin()
	c.walkover(m, winnerID)
	return c.finish(), nil
}

// Dispute flags a completed result for review. Matches fed by it cannot be
// played until the dispute is resolved.
func (c *Controller) Dispute(uid string) (Outcome, error) {
	m, err := c.bracket.Match(uid)
	if err != nil {
		return Outcome{}, err
	}
	if m.Status != models.MatchStatusCompleted {
		return Outcome{}, fmt.Errorf("%w: only completed matches can be disputed, %s is %s",
			models.ErrInvalidTransition, uid, m.Status)
	}
	c.begin()
	m.Status = models.MatchStatusDisputed
	c.touch(m)
	return c.finish(), nil
}

// ResolveDispute closes a dispute with a possibly corrected score. A winner
// change rewrites the downstream slots and is refused once any of them has
// been played. Every resolution is logged as a correction.
func (c *Controller) ResolveDispute(uid string, scoreA, scoreB int, note string) (Outcome, error) {
	m, err := c.bracket.Match(uid)
	if err != nil {
		return Outcome{}, err
	}
	if m.Status != models.MatchStatusDisputed {
		return Outcome{}, fmt.Errorf("%w: match %s is %s, not disputed", models.ErrInvalidTransition, uid, m.Status)
	}
	winnerSlot, err := ValidateScore(m.BestOf, scoreA, scoreB)
	if err != nil {
		return Outcome{}, err
	}
	newWinner := m.Slots[winnerSlot].Team()
	changesWinner := m.WinnerID == nil || *m.WinnerID != newWinner
	if changesWinner {
		if err := c.checkCorrectable(m); err != nil {
			return Outcome{}, err
		}
	}

	c.begin()
	correction := models.Correction{
		TournamentID:   m.TournamentID,
		MatchUID:       m.UID,
		PreviousWinner: m.WinnerID,
		NewWinner:      &newWinner,
		PreviousScores: m.Scores,
		NewScores:      [2]*int{&scoreA, &scoreB},
		Note:           note,
		At:             c.now(),
	}
	c.bracket.Corrections = append(c.bracket.Corrections, correction)

	m.Scores = [2]*int{&scoreA, &scoreB}
	if !changesWinner {
		m.Status = models.MatchStatusCompleted
		c.touch(m)
		out := c.finish()
		out.Correction = &correction
		return out, nil
	}

	if m.UID == brackets.GrandFinalUID {
		c.dropReset()
	}
	c.resolve(m, models.MatchStatusCompleted, newWinner)
	out := c.finish()
	out.Correction = &correction
	return out, nil
}

// Withdraw removes a team from the rest of the stage. Every unresolved match
// it occupies is forfeited to the opponent, and the walkover winners advance
// exactly as after a played win. Matches where no one is left are closed
// with no winner and reported.
func (c *Controller) Withdraw(teamID int) (Outcome, error) {
	involved := c.bracket.MatchesOf(teamID)
	if len(involved) == 0 {
		return Outcome{}, fmt.Errorf("%w: team %d", models.ErrTeamNotInBracket, teamID)
	}
	c.begin()
	if c.bracket.IsWithdrawn(teamID) {
		return c.finish(), nil
	}
	c.bracket.MarkWithdrawn(teamID)
	for _, m := range involved {
		switch m.Status {
		case models.MatchStatusDisputed:
			c.report(m, fmt.Sprintf("team %d withdrew while the result is disputed", teamID))
		case models.MatchStatusPending, models.MatchStatusOngoing:
			c.settle(m)
		}
	}
	return c.finish(), nil
}

// StageComplete reports whether the stage has been decided: every group
// match resolved for round robin, the deciding final resolved otherwise.
func (c *Controller) StageComplete() bool {
	return StageComplete(c.bracket)
}

func StageComplete(b *brackets.Bracket) bool {
	if b.Format == models.FormatRoundRobin {
		for _, m := range b.Matches {
			if !m.Resolved() {
				return false
			}
		}
		return len(b.Matches) > 0
	}
	final := b.Final()
	return final != nil && final.Resolved()
}
