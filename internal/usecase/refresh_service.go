package usecase

import (
	"context"
	"time"

	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

// RefreshOutcome is one league's row in a batch refresh report.
type RefreshOutcome struct {
	LeagueID   string `json:"leagueId"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

const (
	RefreshStatusOK     = "ok"
	RefreshStatusFailed = "failed"
)

// RefreshReport summarizes one batch refresh run.
type RefreshReport struct {
	Forced    bool             `json:"forced"`
	Directory string           `json:"directory"`
	Leagues   []RefreshOutcome `json:"leagues"`
}

// RefreshService walks every tracked league and rebuilds its snapshot.
// Leagues are processed one at a time: the per-league week walk already
// fans out internally, and sequential order keeps upstream pressure flat.
// One league failing never stops the rest.
type RefreshService struct {
	directories *DirectoryService
	snapshots   snapshotProvider
	settings    settings.Repository
	logger      *logging.Logger
}

func NewRefreshService(
	directories *DirectoryService,
	snapshots snapshotProvider,
	settingsRepo settings.Repository,
	logger *logging.Logger,
) *RefreshService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RefreshService{
		directories: directories,
		snapshots:   snapshots,
		settings:    settingsRepo,
		logger:      logger,
	}
}

// RefreshAll refreshes the directory and then every tracked league.
func (s *RefreshService) RefreshAll(ctx context.Context, force bool) (RefreshReport, error) {
	ctx, span := startUsecaseSpan(ctx, "RefreshService.RefreshAll")
	defer span.End()

	report := RefreshReport{Forced: force, Directory: RefreshStatusOK}
	if _, err := s.directories.Refresh(ctx, force); err != nil {
		report.Directory = RefreshStatusFailed
		s.logger.ErrorContext(ctx, "directory refresh failed", "error", err)
	}

	current, ok, err := s.settings.Get(ctx)
	if err != nil {
		return report, err
	}
	if !ok || len(current.LeagueIDs) == 0 {
		s.logger.InfoContext(ctx, "no tracked leagues to refresh")
		report.Leagues = []RefreshOutcome{}
		return report, nil
	}

	report.Leagues = make([]RefreshOutcome, 0, len(current.LeagueIDs))
	for _, leagueID := range current.LeagueIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Leagues = append(report.Leagues, s.refreshOne(ctx, leagueID, force))
	}
	return report, nil
}

// RefreshDirectory resyncs the player directory on its own, leaving league
// snapshots to their regular TTL cycle.
func (s *RefreshService) RefreshDirectory(ctx context.Context, force bool) error {
	ctx, span := startUsecaseSpan(ctx, "RefreshService.RefreshDirectory")
	defer span.End()

	_, err := s.directories.Refresh(ctx, force)
	return err
}

// RefreshLeague refreshes a single league, honoring the snapshot TTL unless
// force is set.
func (s *RefreshService) RefreshLeague(ctx context.Context, leagueID string, force bool) RefreshOutcome {
	ctx, span := startUsecaseSpan(ctx, "RefreshService.RefreshLeague")
	defer span.End()
	return s.refreshOne(ctx, leagueID, force)
}

func (s *RefreshService) refreshOne(ctx context.Context, leagueID string, force bool) RefreshOutcome {
	started := time.Now()
	outcome := RefreshOutcome{LeagueID: leagueID, Status: RefreshStatusOK}
	if _, err := s.snapshots.Refresh(ctx, leagueID, force); err != nil {
		outcome.Status = RefreshStatusFailed
		outcome.Message = err.Error()
		s.logger.ErrorContext(ctx, "league refresh failed", "league_id", leagueID, "error", err)
	}
	outcome.DurationMs = time.Since(started).Milliseconds()
	return outcome
}
