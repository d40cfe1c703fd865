package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-engine/models"
)

// seededTeams returns n teams with seeds 1..n and ID = seed*10.
func seededTeams(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		seed := i + 1
		teams[i] = models.Team{ID: seed * 10, Name: fmt.Sprintf("team-%d", seed), Seed: &seed}
	}
	return teams
}

func stage(format models.StageFormat) models.Stage {
	return models.Stage{Format: format, BestOf: 1, GroupCount: 1}
}

func build(t *testing.T, params GenerateBracketParams) *Bracket {
	t.Helper()
	b, err := BuildBracket(context.Background(), params)
	require.NoError(t, err)
	return b
}

func teamsIn(m *models.Match) []int {
	var ids []int
	for _, s := range m.Slots {
		if s.IsTeam() {
			ids = append(ids, s.Team())
		}
	}
	return ids
}

func TestSeedPositions(t *testing.T) {
	assert.Equal(t, []int{1}, SeedPositions(1))
	assert.Equal(t, []int{1, 2}, SeedPositions(2))
	assert.Equal(t, []int{1, 4, 2, 3}, SeedPositions(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, SeedPositions(8))
}

func TestBuildBracket_InsufficientEntrants(t *testing.T) {
	for _, format := range []models.StageFormat{models.FormatSingleElimination, models.FormatDoubleElimination, models.FormatRoundRobin} {
		_, err := BuildBracket(context.Background(), GenerateBracketParams{Stage: stage(format), Teams: seededTeams(1)})
		assert.ErrorIs(t, err, models.ErrInsufficientEntrants, format)

		_, err = BuildBracket(context.Background(), GenerateBracketParams{Stage: stage(format)})
		assert.ErrorIs(t, err, models.ErrInsufficientEntrants, format)
	}
}

func TestBuildBracket_InvalidStage(t *testing.T) {
	st := stage(models.FormatSingleElimination)
	st.BestOf = 2
	_, err := BuildBracket(context.Background(), GenerateBracketParams{Stage: st, Teams: seededTeams(4)})
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig)

	rr := stage(models.FormatRoundRobin)
	rr.GroupCount = 3
	_, err = BuildBracket(context.Background(), GenerateBracketParams{Stage: rr, Teams: seededTeams(5)})
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig)
}

func TestSingleElimination_SixTeams(t *testing.T) {
	b := build(t, GenerateBracketParams{Stage: stage(models.FormatSingleElimination), Teams: seededTeams(6)})

	require.Len(t, b.Matches, 5)

	r1M2, err := b.Match("R1M2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{40, 50}, teamsIn(r1M2))
	r1M4, err := b.Match("R1M4")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{30, 60}, teamsIn(r1M4))

	_, err = b.Match("R1M1")
	assert.ErrorIs(t, err, models.ErrMatchNotFound, "bye match must not exist")

	r2M1, err := b.Match("R2M1")
	require.NoError(t, err)
	assert.Equal(t, 10, r2M1.Slots[0].Team())
	require.NotNil(t, r2M1.Slots[1].From)
	assert.Equal(t, "R1M2", r2M1.Slots[1].From.MatchUID)

	r2M2, err := b.Match("R2M2")
	require.NoError(t, err)
	assert.Equal(t, 20, r2M2.Slots[0].Team())
	assert.Equal(t, "R1M4", r2M2.Slots[1].From.MatchUID)

	final := b.Final()
	require.NotNil(t, final)
	assert.Equal(t, "R3M1", final.UID)
	assert.True(t, final.Terminal)
	assert.Equal(t, "R2M1", final.Slots[0].From.MatchUID)
	assert.Equal(t, "R2M2", final.Slots[1].From.MatchUID)
}

func TestSingleElimination_PlayableMatches(t *testing.T) {
	for n := 2; n <= 33; n++ {
		b := build(t, GenerateBracketParams{Stage: stage(models.FormatSingleElimination), Teams: seededTeams(n)})
		assert.Len(t, b.Matches, n-1, "n=%d", n)

		finals := 0
		for _, m := range b.Matches {
			assert.False(t, m.Slots[0].IsBye() || m.Slots[1].IsBye(), "n=%d: %s holds a bye", n, m.UID)
			if m.Terminal {
				finals++
				continue
			}
			// every path ends at the single final
			cur := m
			for !cur.Terminal {
				cur, _ = b.Follow(cur.WinnerTo)
				require.NotNil(t, cur)
			}
			assert.Equal(t, b.Final().UID, cur.UID)
		}
		assert.Equal(t, 1, finals, "n=%d", n)
	}
}

func TestSingleElimination_TopSeedsMeetInFinal(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32} {
		b := build(t, GenerateBracketParams{Stage: stage(models.FormatSingleElimination), Teams: seededTeams(n)})
		path := func(teamID int) []string {
			var uids []string
			for _, m := range b.MatchesOf(teamID) {
				for cur := m; cur != nil; {
					uids = append(uids, cur.UID)
					if cur.WinnerTo == nil {
						break
					}
					cur, _ = b.Follow(cur.WinnerTo)
				}
			}
			return uids
		}
		one, two := path(10), path(20)
		var common []string
		for _, uid := range one {
			for _, other := range two {
				if uid == other {
					common = append(common, uid)
				}
			}
		}
		assert.Equal(t, []string{b.Final().UID}, common, "n=%d", n)
	}
}

func TestSingleElimination_ThirdPlace(t *testing.T) {
	st := stage(models.FormatSingleElimination)
	st.ThirdPlaceMatch = true
	b := build(t, GenerateBracketParams{Stage: st, Teams: seededTeams(8)})

	require.Len(t, b.Matches, 8)
	third, err := b.Match("3P-M1")
	require.NoError(t, err)
	assert.Equal(t, models.LabelThirdPlace, third.Label)
	assert.Equal(t, models.OutcomeLoser, third.Slots[0].From.Outcome)

	semi, err := b.Match("R2M1")
	require.NoError(t, err)
	assert.Equal(t, &models.Link{MatchUID: "3P-M1", Slot: 0}, semi.LoserTo)
	assert.Equal(t, "R3M1", b.Final().UID)
}

func TestSingleElimination_FinalBestOf(t *testing.T) {
	st := stage(models.FormatSingleElimination)
	five := 5
	st.FinalBestOf = &five
	b := build(t, GenerateBracketParams{Stage: st, Teams: seededTeams(4)})
	assert.Equal(t, 5, b.Final().BestOf)
	m, _ := b.Match("R1M1")
	assert.Equal(t, 1, m.BestOf)
}

func TestDoubleElimination_MatchCount(t *testing.T) {
	for n := 2; n <= 20; n++ {
		b := build(t, GenerateBracketParams{Stage: stage(models.FormatDoubleElimination), Teams: seededTeams(n)})
		assert.Len(t, b.Matches, 2*n-2, "n=%d", n)
		for _, m := range b.Matches {
			assert.False(t, m.Slots[0].IsBye() || m.Slots[1].IsBye(), "n=%d: %s holds a bye", n, m.UID)
		}
	}
}

func TestDoubleElimination_EightTeams(t *testing.T) {
	b := build(t, GenerateBracketParams{Stage: stage(models.FormatDoubleElimination), Teams: seededTeams(8)})

	rounds := map[models.BracketSide]int{}
	for _, m := range b.Matches {
		rounds[m.Side] = max(rounds[m.Side], m.Round)
	}
	assert.Equal(t, 3, rounds[models.SideWinners])
	assert.Equal(t, 4, rounds[models.SideLosers])

	lb1, _ := b.Match("LB-R1M1")
	assert.Equal(t, "WB-R1M1", lb1.Slots[0].From.MatchUID)
	assert.Equal(t, "WB-R1M2", lb1.Slots[1].From.MatchUID)

	// first drop round is reversed so the losers of the top half meet the bottom half
	lb2, _ := b.Match("LB-R2M1")
	assert.Equal(t, "LB-R1M1", lb2.Slots[0].From.MatchUID)
	assert.Equal(t, "WB-R2M2", lb2.Slots[1].From.MatchUID)
	assert.Equal(t, models.OutcomeLoser, lb2.Slots[1].From.Outcome)

	gf, err := b.Match(GrandFinalUID)
	require.NoError(t, err)
	assert.Equal(t, "WB-R3M1", gf.Slots[0].From.MatchUID)
	assert.Equal(t, "LB-R4M1", gf.Slots[1].From.MatchUID)
	assert.Equal(t, 5, gf.Round, "grand final comes after the losers final")
	assert.Equal(t, gf, b.Final())

	wbFinal, _ := b.Match("WB-R3M1")
	assert.Equal(t, &models.Link{MatchUID: "LB-R4M1", Slot: 1}, wbFinal.LoserTo)
}

func TestDoubleElimination_NoImmediateRematch(t *testing.T) {
	for _, n := range []int{8, 16, 32} {
		b := build(t, GenerateBracketParams{Stage: stage(models.FormatDoubleElimination), Teams: seededTeams(n)})
		wbFinal := b.Final().Slots[0].From.MatchUID

		for _, m := range b.Matches {
			if m.Side != models.SideLosers || m.Slots[1].From == nil || m.Slots[1].From.Outcome != models.OutcomeLoser {
				continue
			}
			dropped := m.Slots[1].From.MatchUID
			if dropped == wbFinal || m.Slots[0].From == nil {
				continue
			}
			// winners matches the dropped team came through in the previous round
			beaten := map[string]bool{}
			for _, w := range b.Matches {
				if w.Side == models.SideWinners && w.WinnerTo != nil && w.WinnerTo.MatchUID == dropped {
					beaten[w.UID] = true
				}
			}
			survivor, err := b.Match(m.Slots[0].From.MatchUID)
			require.NoError(t, err)
			for _, uid := range recentDrops(b, survivor) {
				assert.False(t, beaten[uid], "n=%d: %s pairs the loser of %s with a team it just beat", n, m.UID, dropped)
			}
		}
	}
}

// recentDrops returns the winners matches whose losers most recently entered
// the losers sub-bracket ending at m.
func recentDrops(b *Bracket, m *models.Match) []string {
	var out []string
	for _, s := range m.Slots {
		if s.From == nil {
			continue
		}
		if s.From.Outcome == models.OutcomeLoser {
			out = append(out, s.From.MatchUID)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, s := range m.Slots {
		if s.From == nil {
			continue
		}
		if src, err := b.Match(s.From.MatchUID); err == nil && src.Side == models.SideLosers {
			for _, sub := range src.Slots {
				if sub.From != nil && sub.From.Outcome == models.OutcomeLoser {
					out = append(out, sub.From.MatchUID)
				}
			}
		}
	}
	return out
}

func TestSeededDoubleElimination(t *testing.T) {
	all := seededTeams(8)
	b := build(t, GenerateBracketParams{
		Stage: stage(models.FormatDoubleElimination),
		Teams: all[:4],
		Lower: all[4:],
	})

	assert.Len(t, b.Matches, 10)
	entry, err := b.Match("LB-R1M1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{50, 80}, teamsIn(entry))

	drop, err := b.Match("LB-R2M1")
	require.NoError(t, err)
	assert.Equal(t, "LB-R1M1", drop.Slots[0].From.MatchUID)
	assert.Equal(t, models.OutcomeLoser, drop.Slots[1].From.Outcome)

	var semifinal *models.Match
	for _, m := range b.Matches {
		if m.Label == models.LabelSemifinal {
			semifinal = m
		}
	}
	require.NotNil(t, semifinal)
	assert.Equal(t, &models.Link{MatchUID: GrandFinalUID, Slot: 1}, semifinal.WinnerTo)

	gf, err := b.Match(GrandFinalUID)
	require.NoError(t, err)
	for _, m := range b.Matches {
		if m != gf {
			assert.Less(t, m.Round, gf.Round, m.UID)
		}
	}
}

func TestSeededDoubleElimination_FewLowerTeams(t *testing.T) {
	all := seededTeams(6)
	b := build(t, GenerateBracketParams{
		Stage: stage(models.FormatDoubleElimination),
		Teams: all[:4],
		Lower: all[4:],
	})
	assert.Len(t, b.Matches, 8)

	_, err := BuildBracket(context.Background(), GenerateBracketParams{
		Stage: stage(models.FormatDoubleElimination),
		Teams: all[:1],
		Lower: all[1:],
	})
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig)
}

func TestRoundRobin_AllPairsOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 6, 7} {
		st := stage(models.FormatRoundRobin)
		b := build(t, GenerateBracketParams{Stage: st, Teams: seededTeams(n)})
		assert.Len(t, b.Matches, n*(n-1)/2, "n=%d", n)

		pairs := map[[2]int]int{}
		perRound := map[int]map[int]bool{}
		for _, m := range b.Matches {
			a, c := m.Slots[0].Team(), m.Slots[1].Team()
			if a > c {
				a, c = c, a
			}
			pairs[[2]int{a, c}]++
			if perRound[m.Round] == nil {
				perRound[m.Round] = map[int]bool{}
			}
			assert.False(t, perRound[m.Round][a] || perRound[m.Round][c], "n=%d: team plays twice in round %d", n, m.Round)
			perRound[m.Round][a], perRound[m.Round][c] = true, true
			assert.True(t, m.Terminal)
			assert.Equal(t, models.SideGroup, m.Side)
		}
		for pair, count := range pairs {
			assert.Equal(t, 1, count, "n=%d pair %v", n, pair)
		}
	}
}

func TestRoundRobin_DoubleLegAndGroups(t *testing.T) {
	st := stage(models.FormatRoundRobin)
	st.GroupCount = 2
	st.Legs = 2
	b := build(t, GenerateBracketParams{Stage: st, Teams: seededTeams(8)})

	groups := b.Groups()
	require.Len(t, groups, 2)
	assert.Len(t, groups["A"], 12)
	assert.Len(t, groups["B"], 12)

	first, err := b.Match("GA-R1M1")
	require.NoError(t, err)
	mirror, err := b.Match("GA-R4M1")
	require.NoError(t, err)
	assert.Equal(t, first.Slots[0].Team(), mirror.Slots[1].Team())
	assert.Equal(t, first.Slots[1].Team(), mirror.Slots[0].Team())
}

func TestRoundRobin_ExplicitGroups(t *testing.T) {
	st := stage(models.FormatRoundRobin)
	st.GroupCount = 2
	teams := seededTeams(4)

	b := build(t, GenerateBracketParams{Stage: st, Teams: teams, Groups: []models.Group{
		{Label: "A", TeamIDs: []int{10, 40}},
		{Label: "B", TeamIDs: []int{20, 30}},
	}})
	m, err := b.Match("GA-R1M1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{10, 40}, teamsIn(m))

	_, err = BuildBracket(context.Background(), GenerateBracketParams{Stage: st, Teams: teams, Groups: []models.Group{
		{Label: "A", TeamIDs: []int{10, 40}},
		{Label: "B", TeamIDs: []int{20, 40}},
	}})
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig)
}

func TestDistributeGroups_Snake(t *testing.T) {
	groups := DistributeGroups(seededTeams(6), 3)
	assert.Equal(t, []int{10, 60}, groups[0].TeamIDs)
	assert.Equal(t, []int{20, 50}, groups[1].TeamIDs)
	assert.Equal(t, []int{30, 40}, groups[2].TeamIDs)
}

func TestRestore_RejectsBrokenLinks(t *testing.T) {
	b := build(t, GenerateBracketParams{Stage: stage(models.FormatSingleElimination), Teams: seededTeams(4)})
	matches := make([]*models.Match, 0, len(b.Matches))
	for _, m := range b.Matches {
		if m.UID != "R2M1" {
			matches = append(matches, m.Clone())
		}
	}
	_, err := Restore(0, models.FormatSingleElimination, matches, nil)
	assert.ErrorIs(t, err, models.ErrUnresolvedSlot)

	restored, err := Restore(0, models.FormatSingleElimination, cloneAll(b.Matches), []int{10})
	require.NoError(t, err)
	assert.True(t, restored.IsWithdrawn(10))
	assert.Len(t, restored.Matches, 3)
}

func cloneAll(ms []*models.Match) []*models.Match {
	out := make([]*models.Match, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}
