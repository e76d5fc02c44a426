package snapshot

import (
	"context"

	"github.com/openhuddle/matchwatch/internal/platform/cache"
)

// Repository persists one envelope per league, replaced atomically on each
// rebuild.
type Repository interface {
	Get(ctx context.Context, leagueID string) (cache.Envelope[LeagueSnapshot], bool, error)
	Save(ctx context.Context, leagueID string, env cache.Envelope[LeagueSnapshot]) error
}
