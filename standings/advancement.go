package standings

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

// Advancement splits a finished group stage into the paths leaving it.
// Upper and Lower are ordered for seeding the next stage.
type Advancement struct {
	Upper         []models.Standing `json:"upper"`
	Lower         []models.Standing `json:"lower"`
	BestRemaining []models.Standing `json:"best_remaining"`
	Eliminated    []models.Standing `json:"eliminated"`
}

// ComputeAdvancement applies per-group quotas and the best-remaining rule.
// Groups holding the remainder of an uneven split send
// max(UpperPerGroup, (base+1)-LowerPerGroup) teams up. Best-remaining teams
// are chosen across groups by points then differential and join the lower
// path when the stage has one, the upper path otherwise.
func ComputeAdvancement(groups []GroupStandings, stage models.Stage) (Advancement, error) {
	entering := 0
	for _, g := range groups {
		entering += len(g.Standings)
	}
	if len(groups) != stage.GroupCount {
		return Advancement{}, fmt.Errorf("%w: stage has %d groups, standings cover %d",
			models.ErrInvalidStageConfig, stage.GroupCount, len(groups))
	}
	if err := stage.Validate(entering, nil); err != nil {
		return Advancement{}, err
	}

	var adv Advancement
	var pool []models.Standing
	for _, g := range groups {
		upper, lower := stage.AdvancementQuota(len(g.Standings), entering)
		for i, row := range g.Standings {
			switch {
			case i < upper:
				adv.Upper = append(adv.Upper, row)
			case i < upper+lower:
				adv.Lower = append(adv.Lower, row)
			default:
				pool = append(pool, row)
			}
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return ranksAbove(pool[i], pool[j], false)
	})
	k := min(stage.BestRemaining, len(pool))
	adv.BestRemaining = append(adv.BestRemaining, pool[:k]...)
	adv.Eliminated = append(adv.Eliminated, pool[k:]...)

	seedingOrder(adv.Upper)
	seedingOrder(adv.Lower)
	if stage.LowerPerGroup > 0 {
		adv.Lower = append(adv.Lower, adv.BestRemaining...)
	} else {
		adv.Upper = append(adv.Upper, adv.BestRemaining...)
	}
	return adv, nil
}

// seedingOrder puts group winners first, then runners-up, each tier ranked
// by record.
func seedingOrder(rows []models.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		return ranksAbove(rows[i], rows[j], false)
	})
}

// SeedTeams turns an ordered advancement list into next-stage entrants with
// seeds 1..n.
func SeedTeams(rows []models.Standing, teams []models.Team) []models.Team {
	index := models.TeamIndex(teams)
	out := make([]models.Team, 0, len(rows))
	for i, row := range rows {
		t, ok := index[row.TeamID]
		if !ok {
			t = models.Team{ID: row.TeamID, Name: row.TeamName}
		}
		seed := i + 1
		t.Seed = &seed
		out = append(out, t)
	}
	return out
}
