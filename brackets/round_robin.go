package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates every pairing of each group with the circle
// method. Round numbers are scheduling order only; with Legs = 2 the
// second leg repeats the rotation with sides swapped.
// UIDs follow G{group}-R{round}M{order}.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := requireEntrants(params.Teams); err != nil {
		return nil, err
	}
	stage := params.Stage
	groups := params.Groups
	if groups == nil {
		groups = DistributeGroups(params.Teams, stage.GroupCount)
	}
	if err := checkGroups(params.Teams, groups); err != nil {
		return nil, err
	}

	bl := newBuilder(stage.Index, models.FormatRoundRobin)
	for _, group := range groups {
		rounds := CircleRounds(group.TeamIDs)
		for leg := 1; leg <= stage.LegCount(); leg++ {
			for ri, pairs := range rounds {
				round := (leg-1)*len(rounds) + ri + 1
				for pi, p := range pairs {
					home, away := p[0], p[1]
					if leg == 2 {
						home, away = away, home
					}
					m := bl.match(fmt.Sprintf("G%s-R%dM%d", group.Label, round, pi+1), models.SideGroup, round, pi+1, stage.BestOf)
					m.Group = group.Label
					m.Slots = [2]models.Slot{models.TeamSlot(home), models.TeamSlot(away)}
					m.Terminal = true
				}
			}
		}
	}
	return bl.b, nil
}

// CircleRounds pairs every team with every other once. Team one stays fixed
// while the others rotate; with an odd count one team sits out each round.
func CircleRounds(teamIDs []int) [][][2]int {
	const sitOut = -1
	ring := append([]int(nil), teamIDs...)
	if len(ring)%2 == 1 {
		ring = append(ring, sitOut)
	}
	n := len(ring)
	if n < 2 {
		return nil
	}
	rounds := make([][][2]int, 0, n-1)
	for r := 0; r < n-1; r++ {
		pairs := make([][2]int, 0, n/2)
		for i := 0; i < n/2; i++ {
			a, b := ring[i], ring[n-1-i]
			if a == sitOut || b == sitOut {
				continue
			}
			if i == 0 && r%2 == 1 {
				a, b = b, a
			}
			pairs = append(pairs, [2]int{a, b})
		}
		rounds = append(rounds, pairs)
		// rotate everything but the first position
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}
	return rounds
}

// DistributeGroups spreads seeded teams over groups in snake order
// (A B C C B A ...) when no draw was made.
func DistributeGroups(teams []models.Team, groupCount int) []models.Group {
	if groupCount < 1 {
		groupCount = 1
	}
	groups := make([]models.Group, groupCount)
	for i := range groups {
		groups[i].Label = models.GroupLabel(i)
	}
	for i, t := range teams {
		col := i % groupCount
		if (i/groupCount)%2 == 1 {
			col = groupCount - 1 - col
		}
		groups[col].TeamIDs = append(groups[col].TeamIDs, t.ID)
	}
	return groups
}

func checkGroups(teams []models.Team, groups []models.Group) error {
	known := models.TeamIndex(teams)
	seen := make(map[int]string, len(teams))
	for _, g := range groups {
		if len(g.TeamIDs) < 2 {
			return fmt.Errorf("%w: group %s has %d teams", models.ErrInvalidStageConfig, g.Label, len(g.TeamIDs))
		}
		for _, id := range g.TeamIDs {
			if _, ok := known[id]; !ok {
				return fmt.Errorf("%w: team %d in group %s is not entered in the stage", models.ErrInvalidStageConfig, id, g.Label)
			}
			if other, dup := seen[id]; dup {
				return fmt.Errorf("%w: team %d drawn into groups %s and %s", models.ErrInvalidStageConfig, id, other, g.Label)
			}
			seen[id] = g.Label
		}
	}
	if len(seen) != len(teams) {
		return fmt.Errorf("%w: %d of %d teams were drawn into groups", models.ErrInvalidStageConfig, len(seen), len(teams))
	}
	return nil
}
