package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

var base = time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

func ready(uid string, round, order, a, b int) *models.Match {
	return &models.Match{
		UID:    uid,
		Side:   models.SideWinners,
		Round:  round,
		Order:  order,
		Slots:  [2]models.Slot{models.TeamSlot(a), models.TeamSlot(b)},
		BestOf: 1,
		Status: models.MatchStatusPending,
	}
}

func at(m *models.Match, t time.Time) *models.Match {
	m.ScheduledAt = &t
	return m
}

func uids(as []Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.MatchUID
	}
	return out
}

func TestAutoSchedule(t *testing.T) {
	done := ready("R1M3", 1, 3, 5, 6)
	done.Status = models.MatchStatusCompleted
	matches := []*models.Match{
		ready("R2M1", 2, 1, 0, 0),
		ready("R1M2", 1, 2, 3, 4),
		ready("R1M1", 1, 1, 1, 2),
		done,
		at(ready("R1M4", 1, 4, 7, 8), base),
		ready("R3M1", 3, 1, 0, 0),
	}

	plan, err := AutoSchedule(matches, CadenceConfig{Start: base, MatchesPerDay: 2, Gap: 90 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1M1", "R1M2", "R2M1", "R3M1"}, uids(plan.Assignments))
	assert.Equal(t, base.Add(90*time.Minute), plan.Assignments[0].At, "R1M4 already holds the first slot")
	assert.Equal(t, base.AddDate(0, 0, 1), plan.Assignments[1].At, "rolls over at the same start time")
	assert.Equal(t, base.AddDate(0, 0, 1).Add(90*time.Minute), plan.Assignments[2].At)
	assert.Equal(t, base.AddDate(0, 0, 2), plan.Assignments[3].At)

	changed := plan.Apply(matches)
	assert.Len(t, changed, 4)
	assert.Equal(t, base.Add(90*time.Minute), *matches[2].ScheduledAt)
}

func TestAutoSchedule_SecondPassKeepsTakenSlots(t *testing.T) {
	cfg := CadenceConfig{Start: base, MatchesPerDay: 2, Gap: time.Hour}
	matches := []*models.Match{
		ready("R1M1", 1, 1, 1, 2),
		ready("R1M2", 1, 2, 3, 4),
	}
	first, err := AutoSchedule(matches, cfg)
	require.NoError(t, err)
	first.Apply(matches)

	matches = append(matches, ready("R2M1", 2, 1, 0, 0), ready("R2M2", 2, 2, 0, 0))
	second, err := AutoSchedule(matches, cfg)
	require.NoError(t, err)
	require.Len(t, second.Assignments, 2)
	assert.Equal(t, base.AddDate(0, 0, 1), second.Assignments[0].At)
	assert.Equal(t, base.AddDate(0, 0, 1).Add(time.Hour), second.Assignments[1].At)

	second.Apply(matches)
	assert.Empty(t, DetectConflicts(matches, time.Hour))
	seen := map[time.Time]string{}
	for _, m := range matches {
		require.NotNil(t, m.ScheduledAt, m.UID)
		assert.NotContains(t, seen, *m.ScheduledAt, "%s shares a slot", m.UID)
		seen[*m.ScheduledAt] = m.UID
	}
}

func TestAutoSchedule_DoubleEliminationGrandFinalLast(t *testing.T) {
	teams := make([]models.Team, 8)
	for i := range teams {
		seed := i + 1
		teams[i] = models.Team{ID: seed, Seed: &seed}
	}
	b, err := brackets.BuildBracket(context.Background(), brackets.GenerateBracketParams{
		Stage: models.Stage{Format: models.FormatDoubleElimination, BestOf: 1},
		Teams: teams,
	})
	require.NoError(t, err)

	plan, err := AutoSchedule(b.Matches, CadenceConfig{Start: base, MatchesPerDay: 4, Gap: time.Hour})
	require.NoError(t, err)
	times := map[string]time.Time{}
	for _, a := range plan.Assignments {
		times[a.MatchUID] = a.At
	}
	require.Contains(t, times, brackets.GrandFinalUID)
	gf := times[brackets.GrandFinalUID]
	assert.True(t, gf.After(times["WB-R3M1"]), "grand final %s before winners final %s", gf, times["WB-R3M1"])
	assert.True(t, gf.After(times["LB-R4M1"]), "grand final %s before losers final %s", gf, times["LB-R4M1"])
	for uid, at := range times {
		if uid != brackets.GrandFinalUID {
			assert.True(t, at.Before(gf), uid)
		}
	}
}

func TestAutoSchedule_InvalidConfig(t *testing.T) {
	for _, cfg := range []CadenceConfig{
		{MatchesPerDay: 1},
		{Start: base, MatchesPerDay: 0},
		{Start: base, MatchesPerDay: 2, Gap: -time.Minute},
		{Start: base, MatchesPerDay: 30, Gap: time.Hour},
	} {
		_, err := AutoSchedule(nil, cfg)
		assert.ErrorIs(t, err, models.ErrInvalidScheduleConfig, "%+v", cfg)
	}
}

func pref(uid string, team int, t time.Time) models.Availability {
	return models.Availability{MatchUID: uid, TeamID: team, Start: t}
}

func TestPlanAvailability(t *testing.T) {
	h := time.Hour
	pending := ready("R2M1", 2, 1, 0, 0)
	pending.Slots = [2]models.Slot{models.TeamSlot(1), models.PendingSlot("R1M2", models.OutcomeWinner)}
	matches := []*models.Match{
		ready("R1M1", 1, 1, 1, 2),
		ready("R1M2", 1, 2, 1, 3), // team 1 again: must keep the gap to R1M1
		ready("R1M3", 1, 3, 4, 5),
		ready("R1M4", 1, 4, 6, 7),
		ready("R1M5", 1, 5, 8, 9),
		ready("R1M6", 1, 6, 10, 11),
		pending,
	}
	prefs := []models.Availability{
		pref("R1M1", 1, base.Add(2*h)), pref("R1M1", 1, base),
		pref("R1M1", 2, base), pref("R1M1", 2, base.Add(2*h)),
		pref("R1M2", 1, base.Add(h)), pref("R1M2", 1, base.Add(3*h)),
		pref("R1M2", 3, base.Add(h)), pref("R1M2", 3, base.Add(3*h)),
		pref("R1M3", 4, base),
		pref("R1M4", 6, base), pref("R1M4", 7, base.Add(h)),
		pref("R1M6", 10, base.Add(h)), pref("R1M6", 11, base.Add(h)),
	}

	plan, err := PlanAvailability(matches, prefs, AvailabilityConfig{Gap: 2 * h})
	require.NoError(t, err)

	got := map[string]time.Time{}
	for _, a := range plan.Assignments {
		got[a.MatchUID] = a.At
	}
	assert.Equal(t, map[string]time.Time{
		"R1M1": base,
		"R1M2": base.Add(3 * h),
		"R1M6": base.Add(h),
	}, got)

	reasons := map[string]string{}
	for _, u := range plan.Unschedulable {
		reasons[u.MatchUID] = u.Reason
	}
	assert.Equal(t, map[string]string{
		"R1M3": ReasonOneSide,
		"R1M4": ReasonNoOverlap,
		"R1M5": ReasonNoAvailability,
		"R2M1": ReasonNotDetermined,
	}, reasons)
}

func TestPlanAvailability_SlotAlreadyTaken(t *testing.T) {
	matches := []*models.Match{
		at(ready("R1M1", 1, 1, 1, 2), base),
		ready("R2M1", 2, 1, 1, 3),
	}
	prefs := []models.Availability{pref("R2M1", 1, base), pref("R2M1", 3, base)}

	plan, err := PlanAvailability(matches, prefs, AvailabilityConfig{})
	require.NoError(t, err)
	assert.Empty(t, plan.Assignments)
	require.Len(t, plan.Unschedulable, 1)
	assert.Equal(t, ReasonAllSlotsConflict, plan.Unschedulable[0].Reason)

	_, err = PlanAvailability(matches, prefs, AvailabilityConfig{Gap: -time.Second})
	assert.ErrorIs(t, err, models.ErrInvalidScheduleConfig)
}

func TestDetectConflicts(t *testing.T) {
	near := []*models.Match{
		at(ready("A", 1, 1, 1, 2), base),
		at(ready("B", 1, 2, 1, 3), base.Add(30*time.Minute)),
	}
	conflicts := DetectConflicts(near, 0)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "A", conflicts[0].First)
	assert.Equal(t, "B", conflicts[0].Second)
	assert.Equal(t, []int{1}, conflicts[0].TeamIDs)

	apart := []*models.Match{
		at(ready("A", 1, 1, 1, 2), base),
		at(ready("B", 1, 2, 1, 3), base.Add(90*time.Minute)),
	}
	assert.Empty(t, DetectConflicts(apart, 0))

	edge := []*models.Match{
		at(ready("A", 1, 1, 1, 2), base),
		at(ready("B", 1, 2, 1, 3), base.Add(time.Hour)),
	}
	assert.Empty(t, DetectConflicts(edge, 0))
}

func TestDetectConflicts_AllPairs(t *testing.T) {
	matches := []*models.Match{
		at(ready("C", 1, 3, 1, 4), base.Add(40*time.Minute)),
		at(ready("A", 1, 1, 1, 2), base),
		at(ready("B", 1, 2, 1, 3), base.Add(20*time.Minute)),
		at(ready("D", 1, 4, 5, 6), base.Add(10*time.Minute)),
		ready("E", 1, 5, 1, 7),
	}
	conflicts := DetectConflicts(matches, time.Hour)
	pairs := make([][2]string, 0, len(conflicts))
	for _, c := range conflicts {
		pairs = append(pairs, [2]string{c.First, c.Second})
	}
	assert.Equal(t, [][2]string{{"A", "B"}, {"A", "C"}, {"B", "C"}}, pairs)
}
