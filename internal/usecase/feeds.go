package usecase

import (
	"context"

	"github.com/openhuddle/matchwatch/external/sleeper"
)

// Feed is the upstream surface the services consume. The production
// implementation is the sleeper client; tests substitute stubs.
type Feed interface {
	GetState(ctx context.Context) (sleeper.State, error)
	GetLeague(ctx context.Context, leagueID string) (sleeper.League, error)
	GetRosters(ctx context.Context, leagueID string) ([]sleeper.Roster, error)
	GetMatchups(ctx context.Context, leagueID string, week int) ([]sleeper.Matchup, error)
	FetchPlayerCatalog(ctx context.Context) (map[string]sleeper.CatalogPlayer, error)
	FetchWeekStats(ctx context.Context, season string, week int, weights map[string]float64) sleeper.NormalizedFeed
	FetchWeekProjections(ctx context.Context, season string, week int, weights map[string]float64) sleeper.NormalizedFeed
}
