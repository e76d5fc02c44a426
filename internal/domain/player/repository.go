package player

import (
	"context"

	"github.com/openhuddle/matchwatch/internal/platform/cache"
)

// Repository persists the directory envelope as a whole document. There is
// no partial update; a refresh always replaces the stored envelope.
type Repository interface {
	GetDirectory(ctx context.Context) (cache.Envelope[Directory], bool, error)
	SaveDirectory(ctx context.Context, env cache.Envelope[Directory]) error
}
