package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/random"
)

func teams(n int) []models.Team {
	out := make([]models.Team, n)
	for i := range out {
		out[i] = models.Team{ID: i + 1}
	}
	return out
}

func seed(b byte) random.Seed {
	var s random.Seed
	for i := range s {
		s[i] = b + byte(i)
	}
	return s
}

func TestRunDraw_Unconstrained(t *testing.T) {
	res, err := RunDraw(teams(10), nil, 3, seed(1))
	require.NoError(t, err)
	require.Len(t, res.Assignments, 10)

	sizes := map[string]int{}
	drawn := map[int]bool{}
	for i, a := range res.Assignments {
		assert.Equal(t, i+1, a.Step)
		assert.Nil(t, a.Pot)
		assert.False(t, drawn[a.TeamID], "team %d drawn twice", a.TeamID)
		drawn[a.TeamID] = true
		sizes[a.Group]++
	}
	assert.Equal(t, map[string]int{"A": 4, "B": 3, "C": 3}, sizes)
	assert.Equal(t, seed(1).String(), res.Seed)

	groups := res.Groups()
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].TeamIDs, 4)
}

func TestRunDraw_Deterministic(t *testing.T) {
	pots := map[int]int{1: 1, 2: 1, 3: 1, 4: 2, 5: 2, 6: 2, 7: 3, 8: 3}
	for i := 0; i < 5; i++ {
		first, err := RunDraw(teams(8), pots, 3, seed(7))
		require.NoError(t, err)
		again, err := RunDraw(teams(8), pots, 3, seed(7))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	a, err := RunDraw(teams(16), nil, 4, seed(1))
	require.NoError(t, err)
	b, err := RunDraw(teams(16), nil, 4, seed(2))
	require.NoError(t, err)
	assert.NotEqual(t, a.Assignments, b.Assignments)

	replayed, err := Replay(teams(16), nil, 4, a.Seed)
	require.NoError(t, err)
	assert.Equal(t, a, replayed)
}

func TestRunDraw_PotsNeverShareAGroup(t *testing.T) {
	pots := map[int]int{}
	for id := 1; id <= 14; id++ {
		pots[id] = (id-1)/4 + 1 // pots of 4, 4, 4 and 2 teams
	}
	for s := byte(0); s < 20; s++ {
		res, err := RunDraw(teams(14), pots, 4, seed(s))
		require.NoError(t, err)
		require.Len(t, res.Assignments, 14)

		seen := map[string]map[int]bool{}
		lastPot := 0
		for _, a := range res.Assignments {
			require.NotNil(t, a.Pot)
			assert.GreaterOrEqual(t, *a.Pot, lastPot, "pots are revealed in ascending order")
			lastPot = *a.Pot
			if seen[a.Group] == nil {
				seen[a.Group] = map[int]bool{}
			}
			assert.False(t, seen[a.Group][*a.Pot], "group %s got two teams from pot %d", a.Group, *a.Pot)
			seen[a.Group][*a.Pot] = true
		}
		partial := 0
		for _, pots := range seen {
			if pots[4] {
				partial++
			}
		}
		assert.Equal(t, 2, partial, "the partial pot reaches two groups")
	}
}

func TestRunDraw_ShortPotsKeepGroupsBalanced(t *testing.T) {
	// pots of 4, 2 and 2 teams over 4 groups: every group ends with 2 teams
	pots := map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 2, 6: 2, 7: 3, 8: 3}
	spread := map[string]bool{}
	for s := byte(0); s < 20; s++ {
		res, err := RunDraw(teams(8), pots, 4, seed(s))
		require.NoError(t, err)

		sizes := map[string]int{}
		for _, a := range res.Assignments {
			sizes[a.Group]++
			if *a.Pot == 2 {
				spread[a.Group] = true
			}
		}
		assert.Equal(t, map[string]int{"A": 2, "B": 2, "C": 2, "D": 2}, sizes, "seed %d", s)

		replayed, err := Replay(teams(8), pots, 4, res.Seed)
		require.NoError(t, err)
		assert.Equal(t, res, replayed)
	}
	assert.Len(t, spread, 4, "pot 2 is not pinned to the first groups")
}

func TestRunDraw_InvalidInput(t *testing.T) {
	_, err := RunDraw(teams(1), nil, 1, seed(0))
	assert.ErrorIs(t, err, models.ErrInsufficientEntrants)

	_, err = RunDraw(teams(4), nil, 0, seed(0))
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig)

	_, err = RunDraw(teams(4), map[int]int{1: 1, 2: 1, 3: 1}, 2, seed(0))
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig, "team 4 has no pot")

	_, err = RunDraw(teams(4), map[int]int{1: 1, 2: 1, 3: 1, 4: 2}, 2, seed(0))
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig, "pot 1 is larger than the group count")

	dup := append(teams(3), models.Team{ID: 1})
	_, err = RunDraw(dup, nil, 2, seed(0))
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig)

	_, err = Replay(teams(4), nil, 2, "zz")
	assert.ErrorIs(t, err, models.ErrInvalidStageConfig)
}
