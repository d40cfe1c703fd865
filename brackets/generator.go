package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type GenerateBracketParams struct {
	Stage models.Stage
	// Teams is the field ordered by seed (see models.OrderTeams). For a
	// seeded double elimination stage it holds the upper bracket advancers.
	Teams []models.Team
	// Lower holds lower bracket advancers of a seeded double elimination stage.
	Lower []models.Team
	// Groups is the round robin draw; nil distributes Teams by seed.
	Groups []models.Group
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}

// NewGenerator picks the generator for a stage format.
func NewGenerator(format models.StageFormat, seeded bool) (BracketGenerator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		if seeded {
			return NewSeededDoubleEliminationGenerator(), nil
		}
		return NewDoubleEliminationGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", models.ErrInvalidStageConfig, format)
	}
}

// BuildBracket validates the stage and builds its complete match graph. A
// double elimination stage with lower bracket advancers is built seeded.
func BuildBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entering := len(params.Teams) + len(params.Lower)
	if entering < 2 {
		return nil, fmt.Errorf("%w: %d teams", models.ErrInsufficientEntrants, entering)
	}
	if err := params.Stage.Validate(entering, nil); err != nil {
		return nil, err
	}
	gen, err := NewGenerator(params.Stage.Format, len(params.Lower) > 0)
	if err != nil {
		return nil, err
	}
	b, err := gen.GenerateBracket(ctx, params)
	if err != nil {
		return nil, err
	}
	b.Sort()
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s generator: %w", gen.GetName(), err)
	}
	return b, nil
}

func requireEntrants(teams []models.Team) error {
	if len(teams) < 2 {
		return fmt.Errorf("%w: %d teams", models.ErrInsufficientEntrants, len(teams))
	}
	return nil
}
