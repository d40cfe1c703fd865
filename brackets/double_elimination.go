package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

const (
	GrandFinalUID      = "GF-M1"
	GrandFinalResetUID = "GF-M2"
)

type DoubleEliminationGenerator struct {
}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket builds a winners bracket identical to single elimination
// (WB-R{r}M{m}), a losers bracket of 2(r-1) rounds (LB-R{r}M{m}) and the
// grand final GF-M1, numbered one round after the losers final. The reset match GF-M2 is appended by progression only
// when the losers bracket champion takes the first grand final.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	teams := params.Teams
	if err := requireEntrants(teams); err != nil {
		return nil, err
	}
	size, _ := bracketSize(len(teams))

	bl := newBuilder(params.Stage.Index, models.FormatDoubleElimination)
	wb := bl.winnersBracket(params.Stage, seededSlots(teams, size))
	gf := bl.grandFinal(params.Stage)
	bl.link(wb[len(wb)-1][0], models.OutcomeWinner, gf, 0)

	if len(wb) == 1 {
		bl.link(wb[0][0], models.OutcomeLoser, gf, 1)
	} else {
		first := make([]*models.Match, len(wb[0])/2)
		for i := range first {
			m := bl.match(fmt.Sprintf("LB-R1M%d", i+1), models.SideLosers, 1, i+1, params.Stage.BestOf)
			bl.link(wb[0][2*i], models.OutcomeLoser, m, 0)
			bl.link(wb[0][2*i+1], models.OutcomeLoser, m, 1)
			first[i] = m
		}
		final := bl.dropRounds(params.Stage, first, wb[1:], 2, 1)
		bl.link(final, models.OutcomeWinner, gf, 1)
	}

	bl.lastRound(gf)
	bl.collapseByes()
	return bl.b, nil
}

func (bl *builder) winnersBracket(stage models.Stage, first []models.Slot) [][]*models.Match {
	return bl.eliminationRounds("WB-", models.SideWinners, first, func(int, int) int {
		return stage.BestOf
	})
}

func (bl *builder) grandFinal(stage models.Stage) *models.Match {
	gf := bl.match(GrandFinalUID, models.SideGrandFinal, 1, 1, stage.FinalSeries())
	gf.Label = models.LabelGrandFinal
	gf.Terminal = true
	return gf
}

// lastRound moves m one round past every other match of the bracket, so
// that round order matches play order.
func (bl *builder) lastRound(m *models.Match) {
	last := 0
	for _, other := range bl.b.Matches {
		if other != m && other.Round > last {
			last = other.Round
		}
	}
	m.Round = last + 1
}

// dropRounds alternates drop rounds, where survivors (slot 0) meet losers
// of the next winners round (slot 1), with pairing rounds among survivors.
// It returns the losers final.
func (bl *builder) dropRounds(stage models.Stage, survivors []*models.Match, wbRounds [][]*models.Match, round, dropNo int) *models.Match {
	for k, wbRound := range wbRounds {
		count := len(wbRound)
		order := dropOrder(count, dropNo+k)
		drop := make([]*models.Match, count)
		for i := range drop {
			m := bl.match(fmt.Sprintf("LB-R%dM%d", round, i+1), models.SideLosers, round, i+1, stage.BestOf)
			bl.link(survivors[i], models.OutcomeWinner, m, 0)
			bl.link(wbRound[order[i]], models.OutcomeLoser, m, 1)
			drop[i] = m
		}
		round++
		survivors = drop
		if k == len(wbRounds)-1 {
			break
		}
		paired := make([]*models.Match, count/2)
		for i := range paired {
			m := bl.match(fmt.Sprintf("LB-R%dM%d", round, i+1), models.SideLosers, round, i+1, stage.BestOf)
			bl.link(survivors[2*i], models.OutcomeWinner, m, 0)
			bl.link(survivors[2*i+1], models.OutcomeWinner, m, 1)
			paired[i] = m
		}
		round++
		survivors = paired
	}
	return survivors[0]
}

// dropOrder maps losers bracket match i to the winners match whose loser
// drops into it. Odd drops are reversed and even drops keep order, which
// always sends a dropped team to the survivor from the other half of its
// winners sub-bracket.
func dropOrder(count, drop int) []int {
	order := make([]int, count)
	for i := range order {
		if drop%2 == 1 {
			order[i] = count - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}
