package usecase

import (
	"context"
	"fmt"

	"github.com/openhuddle/matchwatch/external/sleeper"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

const stateCacheKey = "state:nfl"

// StateService serves the shared season/week state document. The state is
// the same for every league, so it is cached once with a short TTL and
// concurrent lookups share a single upstream call.
type StateService struct {
	feed   Feed
	states *cache.Store
	logger *logging.Logger
}

func NewStateService(feed Feed, states *cache.Store, logger *logging.Logger) *StateService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StateService{
		feed:   feed,
		states: states,
		logger: logger,
	}
}

func (s *StateService) Current(ctx context.Context) (sleeper.State, error) {
	ctx, span := startUsecaseSpan(ctx, "StateService.Current")
	defer span.End()

	value, err := s.states.GetOrLoad(ctx, stateCacheKey, func(ctx context.Context) (any, error) {
		state, err := s.feed.GetState(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch shared state: %w", err)
		}
		return state, nil
	})
	if err != nil {
		return sleeper.State{}, err
	}

	state, ok := value.(sleeper.State)
	if !ok {
		return sleeper.State{}, fmt.Errorf("unexpected state cache entry type %T", value)
	}
	return state, nil
}
