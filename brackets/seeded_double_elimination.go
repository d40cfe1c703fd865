package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type SeededDoubleEliminationGenerator struct {
}

func NewSeededDoubleEliminationGenerator() BracketGenerator {
	return &SeededDoubleEliminationGenerator{}
}

func (g *SeededDoubleEliminationGenerator) GetName() string {
	return "SeededDoubleElimination"
}

// GenerateBracket seeds params.Teams (upper advancers) into the winners
// bracket and params.Lower straight into the losers bracket. Lower teams
// play qualification rounds until as many remain as the winners bracket
// has first-round matches; survivors then meet the winners round one losers.
// The losers final is the semifinal and its loser finishes third.
func (g *SeededDoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	upper, lower := params.Teams, params.Lower
	if err := requireEntrants(append(append([]models.Team{}, upper...), lower...)); err != nil {
		return nil, err
	}
	if len(upper) < 2 {
		return nil, fmt.Errorf("%w: seeded double elimination needs at least 2 upper bracket teams, got %d",
			models.ErrInvalidStageConfig, len(upper))
	}
	stage := params.Stage
	upperSize, _ := bracketSize(len(upper))

	bl := newBuilder(stage.Index, models.FormatDoubleElimination)
	wb := bl.winnersBracket(stage, seededSlots(upper, upperSize))
	gf := bl.grandFinal(stage)
	bl.link(wb[len(wb)-1][0], models.OutcomeWinner, gf, 0)

	entrySize, _ := bracketSize(max(len(lower), upperSize))
	entry := bl.eliminationRounds("LB-", models.SideLosers, seededSlots(lower, entrySize), func(int, int) int {
		return stage.BestOf
	})
	// keep qualification rounds until upperSize/2 teams are left
	qualifying := 0
	for n := entrySize / 2; n >= upperSize/2 && qualifying < len(entry); n /= 2 {
		qualifying++
	}
	for _, round := range entry[qualifying:] {
		for _, m := range round {
			bl.b.Remove(m.UID)
		}
	}
	survivors := entry[qualifying-1]
	for _, m := range survivors {
		m.WinnerTo = nil
	}

	final := bl.dropRounds(stage, survivors, wb, qualifying+1, 1)
	final.Label = models.LabelSemifinal
	bl.link(final, models.OutcomeWinner, gf, 1)

	bl.lastRound(gf)
	bl.collapseByes()
	return bl.b, nil
}
