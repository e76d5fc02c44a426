package usecase

import (
	"math"
	"sort"

	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
)

// defenseAccumulator aggregates season-to-date points scored against each
// team, bucketed by the position of the scorer. Rank 1 is the team that has
// allowed the most points at that position, i.e. the softest matchup.
type defenseAccumulator struct {
	totals map[string]map[string]float64
	counts map[string]map[string]int
}

func newDefenseAccumulator() *defenseAccumulator {
	return &defenseAccumulator{
		totals: make(map[string]map[string]float64),
		counts: make(map[string]map[string]int),
	}
}

func (a *defenseAccumulator) add(position, opponent string, points float64) {
	if position == "" || opponent == "" {
		return
	}
	if a.totals[position] == nil {
		a.totals[position] = make(map[string]float64)
		a.counts[position] = make(map[string]int)
	}
	a.totals[position][opponent] += points
	a.counts[position][opponent]++
}

func (a *defenseAccumulator) hasSamples() bool {
	for _, teams := range a.counts {
		if len(teams) > 0 {
			return true
		}
	}
	return false
}

// table ranks every sampled team within each position. Ties on total points
// are broken by team code ascending so repeated builds emit identical ranks.
func (a *defenseAccumulator) table() snapshot.RankTable {
	out := make(snapshot.RankTable, len(a.totals))
	for position, teamTotals := range a.totals {
		teams := make([]string, 0, len(teamTotals))
		for team := range teamTotals {
			teams = append(teams, team)
		}
		sort.Slice(teams, func(i, j int) bool {
			ti, tj := teamTotals[teams[i]], teamTotals[teams[j]]
			if ti != tj {
				return ti > tj
			}
			return teams[i] < teams[j]
		})

		entries := make(map[string]snapshot.RankEntry, len(teams))
		for idx, team := range teams {
			entries[team] = snapshot.RankEntry{
				Rank:  idx + 1,
				Total: roundPoints(teamTotals[team]),
				Count: a.counts[position][team],
				Scale: len(teams),
			}
		}
		out[position] = entries
	}
	return out
}

// rankPlayersByPosition orders tracked players by season actual points
// within their primary position. Ties are broken by player id ascending.
func rankPlayersByPosition(totals map[string]float64, positions map[string]string) map[string]snapshot.PositionRank {
	byPosition := make(map[string][]string)
	for playerID := range totals {
		pos := positions[playerID]
		byPosition[pos] = append(byPosition[pos], playerID)
	}

	out := make(map[string]snapshot.PositionRank, len(totals))
	for pos, players := range byPosition {
		sort.Slice(players, func(i, j int) bool {
			ti, tj := totals[players[i]], totals[players[j]]
			if ti != tj {
				return ti > tj
			}
			return players[i] < players[j]
		})
		for idx, playerID := range players {
			out[playerID] = snapshot.PositionRank{
				Position:    pos,
				TotalPoints: roundPoints(totals[playerID]),
				Rank:        idx + 1,
			}
		}
	}
	return out
}

func roundPoints(v float64) float64 {
	return math.Round(v*100) / 100
}
