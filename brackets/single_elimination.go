package brackets

import (
	"context"

	"github.com/Dosada05/tournament-engine/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket builds a knockout tree of ⌈log2 N⌉ rounds. UIDs follow
// R{round}M{order}; the optional third place match is 3P-M1.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	teams := params.Teams
	if err := requireEntrants(teams); err != nil {
		return nil, err
	}
	stage := params.Stage
	size, _ := bracketSize(len(teams))

	bl := newBuilder(stage.Index, models.FormatSingleElimination)
	rounds := bl.eliminationRounds("", models.SideWinners, seededSlots(teams, size), func(round, total int) int {
		if round == total {
			return stage.FinalSeries()
		}
		return stage.BestOf
	})

	final := rounds[len(rounds)-1][0]
	final.Label = models.LabelFinal
	final.Terminal = true

	if stage.ThirdPlaceMatch && len(rounds) >= 2 {
		semis := rounds[len(rounds)-2]
		for _, m := range semis {
			m.Label = models.LabelSemifinal
		}
		third := bl.match("3P-M1", models.SideWinners, final.Round, 2, stage.BestOf)
		third.Label = models.LabelThirdPlace
		third.Terminal = true
		bl.link(semis[0], models.OutcomeLoser, third, 0)
		bl.link(semis[1], models.OutcomeLoser, third, 1)
	}

	bl.collapseByes()
	return bl.b, nil
}
