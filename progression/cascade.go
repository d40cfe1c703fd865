package progression

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

func (c *Controller) begin() {
	c.changed = nil
	c.removed = nil
	c.seen = make(map[string]bool)
	c.reports = nil
	c.reset = false
}

func (c *Controller) finish() Outcome {
	out := Outcome{
		Removed:       c.removed,
		Reports:       c.reports,
		ResetCreated:  c.reset,
		StageComplete: StageComplete(c.bracket),
	}
	for _, uid := range c.changed {
		if m, err := c.bracket.Match(uid); err == nil {
			out.Changed = append(out.Changed, m.Clone())
		}
	}
	return out
}

func (c *Controller) touch(m *models.Match) {
	m.UpdatedAt = c.now()
	if !c.seen[m.UID] {
		c.seen[m.UID] = true
		c.changed = append(c.changed, m.UID)
	}
}

func (c *Controller) report(m *models.Match, reason string) {
	c.reports = append(c.reports, Report{MatchUID: m.UID, Reason: reason})
}

// playable looks up a match that can take a result right now.
func (c *Controller) playable(uid string) (*models.Match, error) {
	m, err := c.bracket.Match(uid)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchStatusPending && m.Status != models.MatchStatusOngoing {
		return nil, fmt.Errorf("%w: match %s is already %s", models.ErrInvalidTransition, uid, m.Status)
	}
	for _, s := range m.Slots {
		if s.From == nil {
			continue
		}
		if src, err := c.bracket.Match(s.From.MatchUID); err == nil && src.Status == models.MatchStatusDisputed {
			return nil, fmt.Errorf("%w: %s waits on disputed match %s", models.ErrMatchNotReady, uid, src.UID)
		}
	}
	if !m.Ready() {
		return nil, fmt.Errorf("%w: match %s does not have two teams yet", models.ErrMatchNotReady, uid)
	}
	if !m.Terminal {
		if _, err := c.bracket.Follow(m.WinnerTo); err != nil {
			return nil, fmt.Errorf("match %s winner: %w", uid, err)
		}
	}
	if m.LoserTo != nil {
		if _, err := c.bracket.Follow(m.LoserTo); err != nil {
			return nil, fmt.Errorf("match %s loser: %w", uid, err)
		}
	}
	return m, nil
}

// resolve closes a match and pushes its teams forward.
func (c *Controller) resolve(m *models.Match, status models.MatchStatus, winnerID int) {
	m.Status = status
	m.WinnerID = &winnerID
	c.touch(m)

	loserID := m.LoserID()
	if m.WinnerTo != nil {
		c.place(m.WinnerTo, models.TeamSlot(winnerID))
	}
	if m.LoserTo != nil {
		if loserID != 0 && !c.bracket.IsWithdrawn(loserID) {
			c.place(m.LoserTo, models.TeamSlot(loserID))
		} else {
			c.place(m.LoserTo, models.ByeSlot())
		}
	}
	if m.UID == brackets.GrandFinalUID && m.SlotOf(winnerID) == 1 && !c.bracket.IsWithdrawn(m.Slots[0].Team()) {
		c.createReset(m)
	}
}

// walkover awards the match without play. Between two teams the winner is
// credited with a full series.
func (c *Controller) walkover(m *models.Match, winnerID int) {
	if m.Ready() {
		need, zero := (m.BestOf+1)/2, 0
		if m.SlotOf(winnerID) == 0 {
			m.Scores = [2]*int{&need, &zero}
		} else {
			m.Scores = [2]*int{&zero, &need}
		}
	}
	c.resolve(m, models.MatchStatusForfeited, winnerID)
}

// void closes a match nobody can play and passes byes downstream.
func (c *Controller) void(m *models.Match, reason string) {
	m.Status = models.MatchStatusForfeited
	m.WinnerID = nil
	c.touch(m)
	c.report(m, reason)
	if m.WinnerTo != nil {
		c.place(m.WinnerTo, models.ByeSlot())
	}
	if m.LoserTo != nil {
		c.place(m.LoserTo, models.ByeSlot())
	}
}

// place writes an occupant into a downstream slot and settles that match.
// The slot keeps its source reference.
func (c *Controller) place(link *models.Link, slot models.Slot) {
	target, err := c.bracket.Follow(link)
	if err != nil {
		return
	}
	slot.From = target.Slots[link.Slot].From
	target.Slots[link.Slot] = slot
	c.touch(target)
	c.settle(target)
}

// settle resolves whatever a match can resolve on its own: walkovers
// against byes or withdrawn teams, and voids when no side is left.
func (c *Controller) settle(m *models.Match) {
	if m.Status != models.MatchStatusPending && m.Status != models.MatchStatusOngoing {
		return
	}
	present := func(s models.Slot) bool { return s.IsTeam() && !c.bracket.IsWithdrawn(s.Team()) }
	gone := func(s models.Slot) bool { return s.IsBye() || (s.IsTeam() && c.bracket.IsWithdrawn(s.Team())) }

	s0, s1 := m.Slots[0], m.Slots[1]
	switch {
	case gone(s0) && gone(s1):
		if s0.IsTeam() || s1.IsTeam() {
			c.void(m, "no team left to play: both sides withdrew")
		} else {
			c.void(m, "both slots are byes")
		}
	case present(s0) && gone(s1):
		c.walkover(m, s0.Team())
	case gone(s0) && present(s1):
		c.walkover(m, s1.Team())
	default:
		// one side still pending: a withdrawn occupant is replaced by a bye
		for i, s := range m.Slots {
			if s.IsTeam() && c.bracket.IsWithdrawn(s.Team()) {
				bye := models.ByeSlot()
				bye.From = s.From
				m.Slots[i] = bye
				c.touch(m)
			}
		}
	}
}

func (c *Controller) createReset(gf *models.Match) {
	if _, err := c.bracket.Match(brackets.GrandFinalResetUID); err == nil {
		return
	}
	reset := &models.Match{
		TournamentID: gf.TournamentID,
		UID:          brackets.GrandFinalResetUID,
		Side:         models.SideGrandFinal,
		Round:        gf.Round + 1,
		Order:        1,
		Label:        models.LabelGrandFinalReset,
		Slots:        [2]models.Slot{models.TeamSlot(gf.Slots[0].Team()), models.TeamSlot(gf.Slots[1].Team())},
		BestOf:       gf.BestOf,
		Status:       models.MatchStatusPending,
		Terminal:     true,
	}
	c.bracket.Add(reset)
	c.bracket.Sort()
	c.reset = true
	c.touch(reset)
}

func (c *Controller) dropReset() {
	if _, err := c.bracket.Match(brackets.GrandFinalResetUID); err == nil {
		c.bracket.Remove(brackets.GrandFinalResetUID)
		c.removed = append(c.removed, brackets.GrandFinalResetUID)
	}
}

// checkCorrectable refuses a winner change once a match fed by this one has
// been started or decided.
func (c *Controller) checkCorrectable(m *models.Match) error {
	var next []*models.Link
	if m.WinnerTo != nil {
		next = append(next, m.WinnerTo)
	}
	if m.LoserTo != nil {
		next = append(next, m.LoserTo)
	}
	if m.UID == brackets.GrandFinalUID {
		next = append(next, &models.Link{MatchUID: brackets.GrandFinalResetUID})
	}
	for _, link := range next {
		target, err := c.bracket.Match(link.MatchUID)
		if err != nil {
			continue
		}
		if target.Status != models.MatchStatusPending {
			return fmt.Errorf("%w: downstream match %s is %s", models.ErrCorrectionBlocked, target.UID, target.Status)
		}
	}
	return nil
}
