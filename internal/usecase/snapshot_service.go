package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/openhuddle/matchwatch/external/sleeper"
	"github.com/openhuddle/matchwatch/internal/domain/player"
	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
	"github.com/openhuddle/matchwatch/internal/platform/resilience"
)

const (
	defaultSeasonEndWeek = 18
	defaultPlayoffWeek   = 15
)

// SnapshotConfig tunes how league snapshots are rebuilt.
type SnapshotConfig struct {
	// TTL is how long a persisted snapshot satisfies non-forced refreshes.
	TTL time.Duration
	// WeekFetchDelay is the pause between consecutive week fetches so a
	// full-season rebuild does not hammer the upstream.
	WeekFetchDelay time.Duration
	// SeasonEndWeek is the minimum final week of the walk; the walk extends
	// past it only when the live current week is later.
	SeasonEndWeek int
	// ScoringOverrides layer on top of the league's own scoring settings.
	ScoringOverrides map[string]float64
}

func (c SnapshotConfig) seasonEnd() int {
	if c.SeasonEndWeek > 0 {
		return c.SeasonEndWeek
	}
	return defaultSeasonEndWeek
}

type directoryProvider interface {
	Directory(ctx context.Context) (player.Directory, error)
}

type stateProvider interface {
	Current(ctx context.Context) (sleeper.State, error)
}

// SnapshotService rebuilds whole-league snapshots: every tracked player's
// weekly actual/projected line plus cumulative opponent-strength rankings
// for every week walked. A rebuild replaces the persisted snapshot in full.
type SnapshotService struct {
	feed        Feed
	directories directoryProvider
	states      stateProvider
	repo        snapshot.Repository
	cfg         SnapshotConfig
	flight      resilience.SingleFlight
	logger      *logging.Logger

	// sleep is swappable so tests can run the week walk without pacing.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSnapshotService(
	feed Feed,
	directories directoryProvider,
	states stateProvider,
	repo snapshot.Repository,
	cfg SnapshotConfig,
	logger *logging.Logger,
) *SnapshotService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SnapshotService{
		feed:        feed,
		directories: directories,
		states:      states,
		repo:        repo,
		cfg:         cfg,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Refresh returns the league's snapshot, rebuilding it when the persisted
// copy is stale, missing its week history, or force is set. Concurrent
// refreshes of the same league collapse into one build.
func (s *SnapshotService) Refresh(ctx context.Context, leagueID string, force bool) (snapshot.LeagueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "SnapshotService.Refresh")
	defer span.End()

	if strings.TrimSpace(leagueID) == "" {
		return snapshot.LeagueSnapshot{}, fmt.Errorf("league id is required: %w", ErrInvalidInput)
	}

	if !force {
		if snap, ok := s.persisted(ctx, leagueID); ok {
			return snap, nil
		}
	}

	value, err, shared := s.flight.Do("snapshot:"+leagueID, func() (any, error) {
		if !force {
			if snap, ok := s.persisted(ctx, leagueID); ok {
				return snap, nil
			}
		}

		started := time.Now()
		snap, err := s.build(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, leagueID, cache.Wrap(snap)); err != nil {
			return nil, fmt.Errorf("persist snapshot league=%s: %w", leagueID, err)
		}

		s.logger.InfoContext(ctx, "league snapshot rebuilt",
			"league_id", leagueID,
			"weeks", snap.SeasonEndWeek-snap.StartWeek+1,
			"players", len(snap.PlayerWeekly),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return snap, nil
	})
	if err != nil {
		return snapshot.LeagueSnapshot{}, err
	}
	if shared {
		s.logger.DebugContext(ctx, "snapshot refresh joined in-flight build", "league_id", leagueID)
	}

	snap, ok := value.(snapshot.LeagueSnapshot)
	if !ok {
		return snapshot.LeagueSnapshot{}, fmt.Errorf("unexpected snapshot refresh result type %T", value)
	}
	return snap, nil
}

func (s *SnapshotService) persisted(ctx context.Context, leagueID string) (snapshot.LeagueSnapshot, bool) {
	env, ok, err := s.repo.Get(ctx, leagueID)
	if err != nil {
		s.logger.WarnContext(ctx, "snapshot read failed, rebuilding", "league_id", leagueID, "error", err)
		return snapshot.LeagueSnapshot{}, false
	}
	if !ok || !env.Fresh(s.cfg.TTL) || !env.Payload.HasWeekHistory() {
		return snapshot.LeagueSnapshot{}, false
	}
	return env.Payload, true
}

func (s *SnapshotService) build(ctx context.Context, leagueID string) (snapshot.LeagueSnapshot, error) {
	league, err := s.feed.GetLeague(ctx, leagueID)
	if err != nil {
		return snapshot.LeagueSnapshot{}, fmt.Errorf("fetch league %s: %w", leagueID, err)
	}
	rosters, err := s.feed.GetRosters(ctx, leagueID)
	if err != nil {
		return snapshot.LeagueSnapshot{}, fmt.Errorf("fetch rosters league=%s: %w", leagueID, err)
	}
	if len(rosters) == 0 {
		return snapshot.LeagueSnapshot{}, fmt.Errorf("league %s has no rosters: %w", leagueID, ErrDependencyUnavailable)
	}

	dir, err := s.directories.Directory(ctx)
	if err != nil {
		return snapshot.LeagueSnapshot{}, fmt.Errorf("load player directory: %w", err)
	}

	state, stateErr := s.states.Current(ctx)
	if stateErr != nil {
		s.logger.WarnContext(ctx, "shared state unavailable, treating league as concluded",
			"league_id", leagueID, "error", stateErr)
	}

	startWeek := league.Settings.StartWeek
	if startWeek < 1 {
		startWeek = 1
	}

	playoffWeek := league.Settings.PlayoffWeekStart
	if playoffWeek < 1 {
		playoffWeek = defaultPlayoffWeek
	}

	// A league from a past season (or one whose season cannot be verified)
	// is treated as fully concluded and pinned to its playoff week, so no
	// "live" analytics are computed for an out-of-season league.
	seasonLive := stateErr == nil && state.Season == league.Season
	currentWeek, displayWeek, statsWeek := playoffWeek, playoffWeek, playoffWeek
	if seasonLive {
		currentWeek = state.Week
		if currentWeek < 1 {
			currentWeek = 1
		}
		displayWeek = state.DisplayWeek
		if displayWeek < 1 {
			displayWeek = currentWeek
		}
		statsWeek = state.Leg
		if statsWeek < 1 {
			statsWeek = currentWeek
		}
	}

	seasonEndWeek := s.cfg.seasonEnd()
	if currentWeek > seasonEndWeek {
		seasonEndWeek = currentWeek
	}
	if currentWeek < startWeek {
		currentWeek = startWeek
	}
	if statsWeek > seasonEndWeek {
		statsWeek = seasonEndWeek
	}

	weights := s.leagueWeights(league)
	tracked := trackedPlayers(rosters)

	positionByID := make(map[string]string)
	positionOf := func(playerID string) string {
		if pos, ok := positionByID[playerID]; ok {
			return pos
		}
		pos := player.UnknownPosition
		if record, ok := dir.Records[playerID]; ok {
			pos = record.PrimaryPosition()
		}
		positionByID[playerID] = pos
		return pos
	}

	actuals := make(map[string]map[int]float64, len(tracked))
	projected := make(map[string]map[int]float64, len(tracked))
	for _, pid := range tracked {
		actuals[pid] = make(map[int]float64)
		projected[pid] = make(map[int]float64)
	}

	observed := newDefenseAccumulator()
	provisional := newDefenseAccumulator()
	ranksByWeek := make(map[int]snapshot.RankTable)
	matchupsByWeek := make(map[int]map[string]snapshot.MatchupContext)

	for week := startWeek; week <= seasonEndWeek; week++ {
		if week > startWeek && s.cfg.WeekFetchDelay > 0 {
			if err := s.sleep(ctx, s.cfg.WeekFetchDelay); err != nil {
				return snapshot.LeagueSnapshot{}, err
			}
		}

		var (
			matchups   []sleeper.Matchup
			matchupErr error
			stats      sleeper.NormalizedFeed
			projFeed   sleeper.NormalizedFeed
		)

		var wg conc.WaitGroup
		if week <= statsWeek {
			wg.Go(func() {
				matchups, matchupErr = s.feed.GetMatchups(ctx, leagueID, week)
			})
			wg.Go(func() {
				stats = s.feed.FetchWeekStats(ctx, league.Season, week, weights)
			})
		}
		wg.Go(func() {
			projFeed = s.feed.FetchWeekProjections(ctx, league.Season, week, weights)
		})
		wg.Wait()

		if matchupErr != nil {
			s.logger.WarnContext(ctx, "matchup fetch failed, relying on stat feed",
				"league_id", leagueID, "week", week, "error", matchupErr)
			matchups = nil
		}

		// The stat feed is authoritative for actuals; matchup-reported
		// points only fill in when the feed produced nothing for the week.
		// The two sources are never summed.
		statsAuthoritative := len(stats.Points) > 0
		matchupPoints := make(map[string]float64)
		if !statsAuthoritative {
			for _, m := range matchups {
				for pid, pts := range m.PlayersPoints {
					matchupPoints[pid] = pts
				}
			}
		}

		opponentOf := func(playerID string) string {
			if opp, ok := stats.Opponents[playerID]; ok && opp != "" {
				return opp
			}
			return projFeed.Opponents[playerID]
		}

		if week <= statsWeek {
			for _, pid := range tracked {
				if statsAuthoritative {
					if pts, ok := stats.Points[pid]; ok {
						actuals[pid][week] = pts
					}
				} else if pts, ok := matchupPoints[pid]; ok {
					actuals[pid][week] = pts
				}
			}

			actualSource := stats.Points
			if !statsAuthoritative {
				actualSource = matchupPoints
			}
			for pid, pts := range actualSource {
				observed.add(positionOf(pid), opponentOf(pid), pts)
			}
		}

		for _, pid := range tracked {
			if pts, ok := projFeed.Points[pid]; ok {
				projected[pid][week] = pts
			}
		}

		// Until the first observed defensive sample lands, projections stand in
		// as a provisional rank basis. Once observed samples exist the
		// provisional accumulator is abandoned for the rest of the walk.
		if !observed.hasSamples() {
			for pid, pts := range projFeed.Points {
				provisional.add(positionOf(pid), projFeed.Opponents[pid], pts)
			}
		}

		table := observed.table()
		if !observed.hasSamples() {
			table = provisional.table()
		}
		ranksByWeek[week] = table

		// Context exists only for players with both a resolved opponent and
		// a rank-table entry for their position/opponent pair.
		weekMatchups := make(map[string]snapshot.MatchupContext)
		for _, pid := range tracked {
			opp := opponentOf(pid)
			if opp == "" {
				continue
			}
			pos := positionOf(pid)
			entry, ok := table[pos][opp]
			if !ok {
				continue
			}
			weekMatchups[pid] = snapshot.MatchupContext{
				Opponent:      opp,
				Position:      pos,
				Rank:          entry.Rank,
				SampleSize:    entry.Count,
				PointsAllowed: entry.Total,
				Projected:     roundPoints(projFeed.Points[pid]),
			}
		}
		matchupsByWeek[week] = weekMatchups
	}

	playerWeekly := make(map[string][]snapshot.WeeklyEntry, len(tracked))
	seasonTotals := make(map[string]float64, len(tracked))
	for _, pid := range tracked {
		// Scoreless players still need a position group for season ranks.
		positionOf(pid)
		entries := make([]snapshot.WeeklyEntry, 0)
		for week := startWeek; week <= seasonEndWeek; week++ {
			actual, hasActual := actuals[pid][week]
			proj, hasProj := projected[pid][week]
			if !hasActual && !hasProj {
				continue
			}
			entry := snapshot.WeeklyEntry{Week: week, HasActual: hasActual}
			if hasActual {
				entry.Points = roundPoints(actual)
				seasonTotals[pid] += actual
			}
			if hasProj {
				v := roundPoints(proj)
				entry.Projected = &v
			}
			entries = append(entries, entry)
		}
		playerWeekly[pid] = entries
		if _, ok := seasonTotals[pid]; !ok {
			seasonTotals[pid] = 0
		}
	}

	currentMatchups := matchupsByWeek[currentWeek]
	if currentMatchups == nil {
		currentMatchups = make(map[string]snapshot.MatchupContext)
	}
	currentRanks := ranksByWeek[currentWeek]
	if currentRanks == nil {
		currentRanks = make(snapshot.RankTable)
	}

	return snapshot.LeagueSnapshot{
		LeagueID:           leagueID,
		Season:             league.Season,
		StartWeek:          startWeek,
		CurrentWeek:        currentWeek,
		DisplayWeek:        displayWeek,
		StatsWeek:          statsWeek,
		SeasonEndWeek:      seasonEndWeek,
		PlayerWeekly:       playerWeekly,
		PositionRanks:      rankPlayersByPosition(seasonTotals, positionByID),
		Matchups:           currentMatchups,
		MatchupRanks:       currentRanks,
		MatchupsByWeek:     matchupsByWeek,
		MatchupRanksByWeek: ranksByWeek,
	}, nil
}

func (s *SnapshotService) leagueWeights(league sleeper.League) map[string]float64 {
	overrides := make(map[string]float64, len(league.ScoringSettings)+len(s.cfg.ScoringOverrides))
	for stat, weight := range league.ScoringSettings {
		overrides[stat] = weight
	}
	for stat, weight := range s.cfg.ScoringOverrides {
		overrides[stat] = weight
	}
	return sleeper.ScoringWeights(overrides)
}

// trackedPlayers unions every roster's players, reserve, and taxi lists.
// The result is sorted so rebuilds process players in a stable order.
func trackedPlayers(rosters []sleeper.Roster) []string {
	seen := make(map[string]struct{})
	for _, roster := range rosters {
		for _, group := range [][]string{roster.Players, roster.Reserve, roster.Taxi} {
			for _, pid := range group {
				if pid == "" || pid == "0" {
					continue
				}
				seen[pid] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for pid := range seen {
		out = append(out, pid)
	}
	sort.Strings(out)
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nil
}
