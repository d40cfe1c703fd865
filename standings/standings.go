// Package standings ranks round robin groups and decides who advances.
package standings

import (
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

const pointsPerWin = 3

// GroupStandings is the ranked table of one group.
type GroupStandings struct {
	Group     string            `json:"group"`
	Standings []models.Standing `json:"standings"`
}

// ComputeStandings ranks the teams of one group from its resolved matches:
// points, then head-to-head points among teams level on points, then game
// differential, then seed, then team ID. Matches without a winner count
// for nobody.
func ComputeStandings(group string, teams []models.Team, matches []*models.Match) []models.Standing {
	rows := make(map[int]*models.Standing, len(teams))
	order := make([]int, 0, len(teams))
	for _, t := range teams {
		rows[t.ID] = &models.Standing{TeamID: t.ID, TeamName: t.Name, Group: group, Seed: t.Seed}
		order = append(order, t.ID)
	}

	played := resolvedPairs(matches, rows)
	for _, r := range played {
		w, l := rows[r.winner], rows[r.loser]
		w.Played++
		l.Played++
		w.Wins++
		l.Losses++
		w.Points += pointsPerWin
		w.GamesWon += r.winnerGames
		w.GamesLost += r.loserGames
		l.GamesWon += r.loserGames
		l.GamesLost += r.winnerGames
	}
	for _, row := range rows {
		row.Differential = row.GamesWon - row.GamesLost
	}

	// head-to-head is counted only inside each group of teams level on points
	byPoints := make(map[int][]int)
	for _, id := range order {
		byPoints[rows[id].Points] = append(byPoints[rows[id].Points], id)
	}
	for _, tied := range byPoints {
		if len(tied) < 2 {
			continue
		}
		inTie := make(map[int]bool, len(tied))
		for _, id := range tied {
			inTie[id] = true
		}
		for _, r := range played {
			if inTie[r.winner] && inTie[r.loser] {
				rows[r.winner].HeadToHead += pointsPerWin
			}
		}
	}

	out := make([]models.Standing, 0, len(order))
	for _, id := range order {
		out = append(out, *rows[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ranksAbove(out[i], out[j], true)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// GroupsOf rebuilds group membership from the group matches.
func GroupsOf(matches []*models.Match) []models.Group {
	members := make(map[string]map[int]bool)
	for _, m := range matches {
		if m.Side != models.SideGroup {
			continue
		}
		if members[m.Group] == nil {
			members[m.Group] = make(map[int]bool)
		}
		for _, slot := range m.Slots {
			if slot.IsTeam() {
				members[m.Group][slot.Team()] = true
			}
		}
	}
	groups := make([]models.Group, 0, len(members))
	for label, ids := range members {
		g := models.Group{Label: label}
		for id := range ids {
			g.TeamIDs = append(g.TeamIDs, id)
		}
		sort.Ints(g.TeamIDs)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Label) != len(groups[j].Label) {
			return len(groups[i].Label) < len(groups[j].Label)
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}

// ComputeGroupStandings ranks every group of a stage.
func ComputeGroupStandings(groups []models.Group, teams []models.Team, matches []*models.Match) []GroupStandings {
	index := models.TeamIndex(teams)
	byGroup := make(map[string][]*models.Match)
	for _, m := range matches {
		byGroup[m.Group] = append(byGroup[m.Group], m)
	}
	out := make([]GroupStandings, 0, len(groups))
	for _, g := range groups {
		members := make([]models.Team, 0, len(g.TeamIDs))
		for _, id := range g.TeamIDs {
			t, ok := index[id]
			if !ok {
				t = models.Team{ID: id}
			}
			members = append(members, t)
		}
		out = append(out, GroupStandings{Group: g.Label, Standings: ComputeStandings(g.Label, members, byGroup[g.Label])})
	}
	return out
}

// ranksAbove orders two rows. Head-to-head applies only to rows level on points.
func ranksAbove(a, b models.Standing, headToHead bool) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if headToHead && a.HeadToHead != b.HeadToHead {
		return a.HeadToHead > b.HeadToHead
	}
	if a.Differential != b.Differential {
		return a.Differential > b.Differential
	}
	sa, sb := seedRank(a.Seed), seedRank(b.Seed)
	if sa != sb {
		return sa < sb
	}
	return a.TeamID < b.TeamID
}

func seedRank(seed *int) int {
	return models.Team{Seed: seed}.SeedRank()
}

type result struct {
	winner, loser           int
	winnerGames, loserGames int
}

// resolvedPairs extracts decided two-team matches between known teams.
// A walkover without recorded games counts as a full series for the winner.
func resolvedPairs(matches []*models.Match, rows map[int]*models.Standing) []result {
	var out []result
	for _, m := range matches {
		if !m.Resolved() || m.WinnerID == nil || !m.Ready() {
			continue
		}
		winner, loser := *m.WinnerID, m.LoserID()
		if rows[winner] == nil || rows[loser] == nil {
			continue
		}
		ws, ls := m.SlotOf(winner), m.SlotOf(loser)
		r := result{winner: winner, loser: loser}
		if m.Scores[ws] != nil && m.Scores[ls] != nil {
			r.winnerGames, r.loserGames = *m.Scores[ws], *m.Scores[ls]
		} else {
			r.winnerGames = (m.BestOf + 1) / 2
		}
		out = append(out, r)
	}
	return out
}
