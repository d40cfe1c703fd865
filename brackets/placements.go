package brackets

import "github.com/Dosada05/tournament-engine/models"

// Placement is a final finishing position of an elimination stage.
type Placement struct {
	Place  int `json:"place"`
	TeamID int `json:"team_id"`
}

// Champion returns the winner of the deciding match once it is resolved.
func Champion(b *Bracket) (int, bool) {
	final := b.Final()
	if final == nil || !final.Resolved() || final.WinnerID == nil {
		return 0, false
	}
	return *final.WinnerID, true
}

// Placements lists the known podium of an elimination bracket: the final
// decides 1st and 2nd; 3rd goes to the third place match winner (single
// elimination) or the losers bracket finalist who lost (double elimination).
func Placements(b *Bracket) []Placement {
	var out []Placement
	final := b.Final()
	if champion, ok := Champion(b); ok {
		out = append(out, Placement{Place: 1, TeamID: champion})
		if runnerUp := final.LoserID(); runnerUp != 0 {
			out = append(out, Placement{Place: 2, TeamID: runnerUp})
		}
	}

	for _, m := range b.Matches {
		switch {
		case m.Label == models.LabelThirdPlace && m.Resolved() && m.WinnerID != nil:
			out = append(out, Placement{Place: 3, TeamID: *m.WinnerID})
			if fourth := m.LoserID(); fourth != 0 {
				out = append(out, Placement{Place: 4, TeamID: fourth})
			}
		case m.Side == models.SideLosers && m.WinnerTo != nil && m.WinnerTo.MatchUID == GrandFinalUID && m.Resolved():
			if third := m.LoserID(); third != 0 {
				out = append(out, Placement{Place: 3, TeamID: third})
			}
		}
	}
	return out
}
