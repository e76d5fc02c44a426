package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openhuddle/matchwatch/external/sleeper"
	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

// ActiveWeekSummary is the clamped "what week is it for this league" view.
type ActiveWeekSummary struct {
	LeagueID    string `json:"leagueId"`
	Season      string `json:"season"`
	Week        int    `json:"week"`
	DisplayWeek int    `json:"displayWeek"`
	StatsWeek   int    `json:"statsWeek"`
}

// PlayerTrend is one player's full weekly series plus their standing and
// matchup context for the requested week.
type PlayerTrend struct {
	LeagueID    string                   `json:"leagueId"`
	PlayerID    string                   `json:"playerId"`
	Week        int                      `json:"week"`
	Entries     []snapshot.WeeklyEntry   `json:"entries"`
	SeasonTotal float64                  `json:"seasonTotal"`
	Rank        *snapshot.PositionRank   `json:"rank,omitempty"`
	Matchup     *snapshot.MatchupContext `json:"matchup,omitempty"`
}

// TeamTotals is the summed actual and projected output of one roster's
// starters for a week.
type TeamTotals struct {
	RosterID   string   `json:"rosterId"`
	MatchupID  string   `json:"matchupId"`
	Week       int      `json:"week"`
	Actual     float64  `json:"actual"`
	Projected  float64  `json:"projected"`
	Starters   []string `json:"starters"`
	Confidence string   `json:"confidence"`
}

// Roster resolution confidence, from strongest to weakest.
const (
	ConfidenceRosterID   = "roster_id"
	ConfidenceStarterSet = "starter_set"
	ConfidenceOverlap    = "overlap"
	ConfidenceFallback   = "fallback"
)

// TeamTotalsResult never carries a Go error: team-total lookups degrade to a
// described failure instead of propagating one.
type TeamTotalsResult struct {
	Team  *TeamTotals `json:"team,omitempty"`
	Error string      `json:"error,omitempty"`
}

type snapshotProvider interface {
	Refresh(ctx context.Context, leagueID string, force bool) (snapshot.LeagueSnapshot, error)
}

type matchupLister interface {
	GetMatchups(ctx context.Context, leagueID string, week int) ([]sleeper.Matchup, error)
}

// QueryService answers read queries against built snapshots, reaching
// upstream only for live week matchups.
type QueryService struct {
	snapshots    snapshotProvider
	states       stateProvider
	feed         matchupLister
	liveMatchups *cache.Store
	logger       *logging.Logger
}

func NewQueryService(
	snapshots snapshotProvider,
	states stateProvider,
	feed matchupLister,
	liveMatchups *cache.Store,
	logger *logging.Logger,
) *QueryService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &QueryService{
		snapshots:    snapshots,
		states:       states,
		feed:         feed,
		liveMatchups: liveMatchups,
		logger:       logger,
	}
}

// ActiveWeek resolves the league's active week: the live shared week clamped
// into the league's own week range, falling back to the snapshot's current
// week when the live state is unavailable.
func (s *QueryService) ActiveWeek(ctx context.Context, leagueID string) (ActiveWeekSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "QueryService.ActiveWeek")
	defer span.End()

	snap, err := s.snapshots.Refresh(ctx, leagueID, false)
	if err != nil {
		return ActiveWeekSummary{}, err
	}

	week := snap.CurrentWeek
	displayWeek := snap.DisplayWeek
	if state, stateErr := s.states.Current(ctx); stateErr == nil && state.Season == snap.Season {
		week = clampWeek(state.Week, snap.StartWeek, snap.SeasonEndWeek)
		if state.DisplayWeek > 0 {
			displayWeek = clampWeek(state.DisplayWeek, snap.StartWeek, snap.SeasonEndWeek)
		}
	}

	return ActiveWeekSummary{
		LeagueID:    leagueID,
		Season:      snap.Season,
		Week:        week,
		DisplayWeek: displayWeek,
		StatsWeek:   snap.StatsWeek,
	}, nil
}

// Trend returns a tracked player's weekly series with their position rank
// and the matchup context for the requested week. A snapshot without week
// history triggers exactly one forced rebuild before giving up.
func (s *QueryService) Trend(ctx context.Context, leagueID, playerID string, week int) (PlayerTrend, error) {
	ctx, span := startUsecaseSpan(ctx, "QueryService.Trend")
	defer span.End()

	if strings.TrimSpace(playerID) == "" {
		return PlayerTrend{}, fmt.Errorf("player id is required: %w", ErrInvalidInput)
	}

	snap, err := s.snapshots.Refresh(ctx, leagueID, false)
	if err != nil {
		return PlayerTrend{}, err
	}
	if !snap.HasWeekHistory() {
		s.logger.InfoContext(ctx, "snapshot missing week history, forcing rebuild", "league_id", leagueID)
		snap, err = s.snapshots.Refresh(ctx, leagueID, true)
		if err != nil {
			return PlayerTrend{}, err
		}
		if !snap.HasWeekHistory() {
			return PlayerTrend{}, fmt.Errorf("league %s: %w", leagueID, ErrNoSnapshot)
		}
	}

	entries, ok := snap.PlayerWeekly[playerID]
	if !ok {
		return PlayerTrend{}, fmt.Errorf("player %s is not tracked in league %s: %w", playerID, leagueID, ErrNotFound)
	}

	if week <= 0 {
		week = snap.CurrentWeek
	}
	week = clampWeek(week, snap.StartWeek, snap.SeasonEndWeek)

	trend := PlayerTrend{
		LeagueID: leagueID,
		PlayerID: playerID,
		Week:     week,
		Entries:  entries,
	}
	for _, entry := range entries {
		if entry.HasActual && entry.Week <= week {
			trend.SeasonTotal = roundPoints(trend.SeasonTotal + entry.Points)
		}
	}
	if rank, ok := snap.PositionRanks[playerID]; ok {
		trend.Rank = &rank
	}
	if mc, ok := snap.MatchupsByWeek[week][playerID]; ok {
		trend.Matchup = &mc
	}
	return trend, nil
}

// TeamTotals sums a roster's starters for a week. Failures are folded into
// the result; the call itself never errors past input validation performed
// upstream.
func (s *QueryService) TeamTotals(ctx context.Context, leagueID, rosterID string, week int, starters []string) TeamTotalsResult {
	ctx, span := startUsecaseSpan(ctx, "QueryService.TeamTotals")
	defer span.End()

	team, err := s.teamTotals(ctx, leagueID, rosterID, week, starters)
	if err != nil {
		s.logger.WarnContext(ctx, "team totals unavailable",
			"league_id", leagueID, "roster_id", rosterID, "week", week, "error", err)
		return TeamTotalsResult{Error: err.Error()}
	}
	return TeamTotalsResult{Team: team}
}

func (s *QueryService) teamTotals(ctx context.Context, leagueID, rosterID string, week int, starters []string) (*TeamTotals, error) {
	snap, err := s.snapshots.Refresh(ctx, leagueID, false)
	if err != nil {
		return nil, err
	}

	if week <= 0 {
		week = snap.CurrentWeek
	}
	week = clampWeek(week, snap.StartWeek, snap.SeasonEndWeek)

	matchups, err := s.weekMatchups(ctx, leagueID, week)
	if err != nil {
		return nil, err
	}
	if len(matchups) == 0 {
		return nil, fmt.Errorf("no matchups for league %s week %d", leagueID, week)
	}

	matchup, confidence := resolveRosterMatchup(matchups, rosterID, starters)
	if confidence == ConfidenceFallback {
		s.logger.WarnContext(ctx, "roster matchup resolved by fallback",
			"league_id", leagueID, "roster_id", rosterID, "week", week)
	}

	lineup := starters
	if len(lineup) == 0 {
		lineup = matchup.Starters
	}

	totals := &TeamTotals{
		RosterID:   matchup.RosterID,
		MatchupID:  matchup.MatchupID,
		Week:       week,
		Starters:   lineup,
		Confidence: confidence,
	}
	for _, pid := range lineup {
		if pid == "" || pid == "0" {
			continue
		}
		actual, projected := s.playerWeekValues(snap, matchup, pid, week)
		totals.Actual += actual
		totals.Projected += projected
	}
	totals.Actual = roundPoints(totals.Actual)
	totals.Projected = roundPoints(totals.Projected)
	return totals, nil
}

// playerWeekValues prefers the live matchup score and falls back to the
// snapshot's weekly series for both actual and projected values.
func (s *QueryService) playerWeekValues(snap snapshot.LeagueSnapshot, matchup sleeper.Matchup, playerID string, week int) (actual, projected float64) {
	fromMatchup := false
	if pts, ok := matchup.PlayersPoints[playerID]; ok {
		actual = pts
		fromMatchup = true
	}

	for _, entry := range snap.PlayerWeekly[playerID] {
		if entry.Week != week {
			continue
		}
		if !fromMatchup && entry.HasActual {
			actual = entry.Points
		}
		if entry.Projected != nil {
			projected = *entry.Projected
		}
		break
	}
	return actual, projected
}

func (s *QueryService) weekMatchups(ctx context.Context, leagueID string, week int) ([]sleeper.Matchup, error) {
	key := fmt.Sprintf("matchups:%s:%d", leagueID, week)
	value, err := s.liveMatchups.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		matchups, err := s.feed.GetMatchups(ctx, leagueID, week)
		if err != nil {
			return nil, fmt.Errorf("fetch matchups league=%s week=%d: %w", leagueID, week, err)
		}
		return matchups, nil
	})
	if err != nil {
		return nil, err
	}

	matchups, ok := value.([]sleeper.Matchup)
	if !ok {
		return nil, fmt.Errorf("unexpected matchup cache entry type %T", value)
	}
	return matchups, nil
}

// resolveRosterMatchup walks the resolution chain: exact roster id, exact
// starter set, best starter overlap, then the first matchup as a last
// resort. Overlap ties go to the earlier matchup in upstream order.
func resolveRosterMatchup(matchups []sleeper.Matchup, rosterID string, starters []string) (sleeper.Matchup, string) {
	if rosterID != "" {
		for _, m := range matchups {
			if m.RosterID == rosterID {
				return m, ConfidenceRosterID
			}
		}
	}

	if len(starters) > 0 {
		want := make([]string, len(starters))
		copy(want, starters)
		sort.Strings(want)

		for _, m := range matchups {
			if len(m.Starters) != len(want) {
				continue
			}
			got := make([]string, len(m.Starters))
			copy(got, m.Starters)
			sort.Strings(got)
			if equalStrings(want, got) {
				return m, ConfidenceStarterSet
			}
		}

		wantSet := make(map[string]struct{}, len(want))
		for _, pid := range want {
			wantSet[pid] = struct{}{}
		}
		bestIdx, bestOverlap := -1, 0
		for idx, m := range matchups {
			overlap := 0
			for _, pid := range m.Starters {
				if _, ok := wantSet[pid]; ok {
					overlap++
				}
			}
			if overlap > bestOverlap {
				bestIdx, bestOverlap = idx, overlap
			}
		}
		if bestIdx >= 0 {
			return matchups[bestIdx], ConfidenceOverlap
		}
	}

	return matchups[0], ConfidenceFallback
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clampWeek(week, low, high int) int {
	if week < low {
		return low
	}
	if week > high {
		return high
	}
	return week
}
