package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

// SettingsService manages which leagues are tracked and the display toggles.
type SettingsService struct {
	repo   settings.Repository
	logger *logging.Logger
}

func NewSettingsService(repo settings.Repository, logger *logging.Logger) *SettingsService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SettingsService{repo: repo, logger: logger}
}

func (s *SettingsService) Get(ctx context.Context) (settings.Settings, error) {
	current, ok, err := s.repo.Get(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	if !ok {
		return settings.Settings{LeagueIDs: []string{}, ShowRanks: true, ShowProjections: true}, nil
	}
	if current.LeagueIDs == nil {
		current.LeagueIDs = []string{}
	}
	return current, nil
}

func (s *SettingsService) Update(ctx context.Context, updated settings.Settings) (settings.Settings, error) {
	cleaned := make([]string, 0, len(updated.LeagueIDs))
	seen := make(map[string]struct{}, len(updated.LeagueIDs))
	for _, id := range updated.LeagueIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	updated.LeagueIDs = cleaned

	if err := s.repo.Save(ctx, updated); err != nil {
		return settings.Settings{}, err
	}
	s.logger.InfoContext(ctx, "settings updated", "tracked_leagues", len(updated.LeagueIDs))
	return updated, nil
}

// TrackLeague adds a league to the tracked set; adding an already tracked
// league is a no-op.
func (s *SettingsService) TrackLeague(ctx context.Context, leagueID string) (settings.Settings, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return settings.Settings{}, fmt.Errorf("league id is required: %w", ErrInvalidInput)
	}

	current, err := s.Get(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	for _, id := range current.LeagueIDs {
		if id == leagueID {
			return current, nil
		}
	}
	current.LeagueIDs = append(current.LeagueIDs, leagueID)
	return s.Update(ctx, current)
}

func (s *SettingsService) UntrackLeague(ctx context.Context, leagueID string) (settings.Settings, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return settings.Settings{}, fmt.Errorf("league id is required: %w", ErrInvalidInput)
	}

	current, err := s.Get(ctx)
	if err != nil {
		return settings.Settings{}, err
	}

	// Never compact in place: the slice may share its backing array with
	// the stored document and with other readers' snapshots.
	kept := make([]string, 0, len(current.LeagueIDs))
	for _, id := range current.LeagueIDs {
		if id != leagueID {
			kept = append(kept, id)
		}
	}
	current.LeagueIDs = kept
	return s.Update(ctx, current)
}
