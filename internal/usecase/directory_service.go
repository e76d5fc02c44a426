package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/openhuddle/matchwatch/external/sleeper"
	"github.com/openhuddle/matchwatch/internal/domain/player"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
	"github.com/openhuddle/matchwatch/internal/platform/resilience"
)

const directoryFlightKey = "directory:refresh"

// DirectoryService keeps the player directory synchronized with the
// upstream catalog. The catalog download is large, so refreshes are
// deduplicated and a fresh persisted copy short-circuits the fetch.
type DirectoryService struct {
	feed   Feed
	repo   player.Repository
	ttl    time.Duration
	flight resilience.SingleFlight
	logger *logging.Logger
}

func NewDirectoryService(feed Feed, repo player.Repository, ttl time.Duration, logger *logging.Logger) *DirectoryService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DirectoryService{
		feed:   feed,
		repo:   repo,
		ttl:    ttl,
		logger: logger,
	}
}

// Refresh returns the current directory envelope, fetching the upstream
// catalog when the persisted copy is stale, empty, or force is set.
// Concurrent refreshes collapse into one catalog download; every waiter
// receives the same envelope.
func (s *DirectoryService) Refresh(ctx context.Context, force bool) (cache.Envelope[player.Directory], error) {
	ctx, span := startUsecaseSpan(ctx, "DirectoryService.Refresh")
	defer span.End()

	if !force {
		env, ok, err := s.repo.GetDirectory(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "directory read failed, refetching", "error", err)
		} else if ok && env.Fresh(s.ttl) && len(env.Payload.Records) > 0 {
			return env, nil
		}
	}

	value, err, shared := s.flight.Do(directoryFlightKey, func() (any, error) {
		return s.refetch(ctx, force)
	})
	if err != nil {
		return cache.Envelope[player.Directory]{}, err
	}
	if shared {
		s.logger.DebugContext(ctx, "directory refresh joined in-flight fetch")
	}

	env, ok := value.(cache.Envelope[player.Directory])
	if !ok {
		return cache.Envelope[player.Directory]{}, fmt.Errorf("unexpected directory refresh result type %T", value)
	}
	return env, nil
}

func (s *DirectoryService) refetch(ctx context.Context, force bool) (cache.Envelope[player.Directory], error) {
	// A waiter that queued behind a completed refresh should not trigger
	// another download, so freshness is rechecked inside the flight.
	if !force {
		env, ok, err := s.repo.GetDirectory(ctx)
		if err == nil && ok && env.Fresh(s.ttl) && len(env.Payload.Records) > 0 {
			return env, nil
		}
	}

	catalog, err := s.feed.FetchPlayerCatalog(ctx)
	if err != nil {
		return cache.Envelope[player.Directory]{}, fmt.Errorf("fetch player catalog: %w", err)
	}
	if len(catalog) == 0 {
		return cache.Envelope[player.Directory]{}, fmt.Errorf("player catalog is empty: %w", ErrDependencyUnavailable)
	}

	env := cache.Wrap(projectDirectory(catalog))
	if err := s.repo.SaveDirectory(ctx, env); err != nil {
		return cache.Envelope[player.Directory]{}, fmt.Errorf("persist directory: %w", err)
	}

	s.logger.InfoContext(ctx, "player directory refreshed",
		"players", len(env.Payload.Records),
		"forced", force,
	)
	return env, nil
}

// Directory returns the directory payload, refreshing it if stale.
func (s *DirectoryService) Directory(ctx context.Context) (player.Directory, error) {
	env, err := s.Refresh(ctx, false)
	if err != nil {
		return player.Directory{}, err
	}
	return env.Payload, nil
}

// Get resolves one player by their upstream identifier.
func (s *DirectoryService) Get(ctx context.Context, playerID string) (player.Record, error) {
	if strings.TrimSpace(playerID) == "" {
		return player.Record{}, fmt.Errorf("player id is required: %w", ErrInvalidInput)
	}

	dir, err := s.Directory(ctx)
	if err != nil {
		return player.Record{}, err
	}

	record, ok := dir.Records[playerID]
	if !ok {
		return player.Record{}, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return record, nil
}

// Search fuzzy-matches player names against the directory and returns up to
// limit records ordered by match distance, then name, then id.
func (s *DirectoryService) Search(ctx context.Context, query string, limit int) ([]player.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required: %w", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}

	dir, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		record   player.Record
		distance int
	}
	matches := make([]scored, 0, limit)
	for _, record := range dir.Records {
		name := record.FullName
		if name == "" {
			name = strings.TrimSpace(record.FirstName + " " + record.LastName)
		}
		rank := fuzzy.RankMatchNormalizedFold(query, name)
		if rank < 0 {
			continue
		}
		matches = append(matches, scored{record: record, distance: rank})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		if matches[i].record.FullName != matches[j].record.FullName {
			return matches[i].record.FullName < matches[j].record.FullName
		}
		return matches[i].record.ID < matches[j].record.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	records := make([]player.Record, 0, len(matches))
	for _, m := range matches {
		records = append(records, m.record)
	}
	return records, nil
}

func projectDirectory(catalog map[string]sleeper.CatalogPlayer) player.Directory {
	records := make(map[string]player.Record, len(catalog))
	for id, raw := range catalog {
		if id == "" {
			continue
		}
		fullName := raw.FullName
		if fullName == "" {
			fullName = strings.TrimSpace(raw.FirstName + " " + raw.LastName)
		}
		records[id] = player.Record{
			ID:               id,
			FirstName:        raw.FirstName,
			LastName:         raw.LastName,
			FullName:         fullName,
			Team:             sleeper.NormalizeTeamCode(raw.Team),
			Position:         raw.Position,
			FantasyPositions: raw.FantasyPositions,
			MetadataPosition: raw.Metadata["position"],
			Age:              raw.Age,
			YearsExp:         raw.YearsExp,
		}
	}
	return player.Directory{
		LastSync: time.Now().UTC(),
		Records:  records,
	}
}
