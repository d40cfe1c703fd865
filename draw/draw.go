// Package draw assigns teams to round robin groups as a replayable reveal
// sequence.
package draw

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/random"
)

// Result is the ordered reveal sequence of a draw and the seed that made it.
type Result struct {
	Seed        string                  `json:"seed"`
	GroupCount  int                     `json:"group_count"`
	Assignments []models.DrawAssignment `json:"assignments"`
}

// Groups rebuilds group membership from the reveal order.
func (r Result) Groups() []models.Group {
	return r.Record(0, 0).Groups()
}

// Record converts the result into its persisted form.
func (r Result) Record(tournamentID, stageIndex int) models.DrawRecord {
	return models.DrawRecord{
		TournamentID: tournamentID,
		StageIndex:   stageIndex,
		Seed:         r.Seed,
		GroupCount:   r.GroupCount,
		Assignments:  r.Assignments,
	}
}

// RunDraw assigns every team to one of groupCount groups.
//
// Without pots the team list is shuffled and dealt round-robin over the
// groups. With pots (team ID -> pot number) each pot is shuffled on its own,
// in ascending pot order, and each of its teams is drawn into one of the
// smallest groups that has no team from that pot yet. No group receives two
// teams from the same pot and group sizes never differ by more than one.
//
// The seed is the only source of variation: the same seed, teams and pots
// always produce the same sequence.
func RunDraw(teams []models.Team, pots map[int]int, groupCount int, seed random.Seed) (Result, error) {
	if len(teams) < 2 {
		return Result{}, fmt.Errorf("%w: draw needs at least 2 teams, got %d", models.ErrInsufficientEntrants, len(teams))
	}
	if groupCount < 1 {
		return Result{}, fmt.Errorf("%w: group count must be positive, got %d", models.ErrInvalidStageConfig, groupCount)
	}
	seen := make(map[int]bool, len(teams))
	for _, t := range teams {
		if seen[t.ID] {
			return Result{}, fmt.Errorf("%w: team %d entered twice", models.ErrInvalidStageConfig, t.ID)
		}
		seen[t.ID] = true
	}

	src := random.New(seed)
	res := Result{Seed: seed.String(), GroupCount: groupCount}
	if pots == nil {
		for i, t := range random.Shuffled(src, teams) {
			res.Assignments = append(res.Assignments, models.DrawAssignment{
				Step:   i + 1,
				TeamID: t.ID,
				Group:  models.GroupLabel(i % groupCount),
			})
		}
		return res, nil
	}

	byPot, order, err := splitPots(teams, pots, groupCount)
	if err != nil {
		return Result{}, err
	}
	step := 0
	sizes := make([]int, groupCount)
	for _, pot := range order {
		used := make([]bool, groupCount)
		for _, t := range random.Shuffled(src, byPot[pot]) {
			group, _ := random.Choice(src, openGroups(sizes, used))
			used[group] = true
			sizes[group]++
			step++
			p := pot
			res.Assignments = append(res.Assignments, models.DrawAssignment{
				Step:   step,
				TeamID: t.ID,
				Group:  models.GroupLabel(group),
				Pot:    &p,
			})
		}
	}
	return res, nil
}

// openGroups returns the smallest groups that have no team from the current
// pot yet. splitPots guarantees at least one exists.
func openGroups(sizes []int, used []bool) []int {
	var out []int
	smallest := -1
	for g, size := range sizes {
		if used[g] {
			continue
		}
		switch {
		case smallest == -1 || size < smallest:
			smallest, out = size, []int{g}
		case size == smallest:
			out = append(out, g)
		}
	}
	return out
}

// Replay reruns a recorded draw from its hex seed.
func Replay(teams []models.Team, pots map[int]int, groupCount int, seedHex string) (Result, error) {
	seed, err := random.ParseSeed(seedHex)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", models.ErrInvalidStageConfig, err)
	}
	return RunDraw(teams, pots, groupCount, seed)
}

func splitPots(teams []models.Team, pots map[int]int, groupCount int) (map[int][]models.Team, []int, error) {
	byPot := make(map[int][]models.Team)
	for _, t := range teams {
		pot, ok := pots[t.ID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: team %d has no pot", models.ErrInvalidStageConfig, t.ID)
		}
		byPot[pot] = append(byPot[pot], t)
	}
	order := make([]int, 0, len(byPot))
	for pot, members := range byPot {
		if len(members) > groupCount {
			return nil, nil, fmt.Errorf("%w: pot %d holds %d teams but there are only %d groups",
				models.ErrInvalidStageConfig, pot, len(members), groupCount)
		}
		order = append(order, pot)
	}
	sort.Ints(order)
	return byPot, order, nil
}
