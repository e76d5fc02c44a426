package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/openhuddle/matchwatch/internal/platform/logging"
	"github.com/openhuddle/matchwatch/internal/usecase"
)

// Config controls the background refresh cadence. Zero intervals disable
// the corresponding job.
type Config struct {
	Enabled           bool
	DirectoryInterval time.Duration
	LeagueInterval    time.Duration
}

// Scheduler runs the periodic refresh jobs: a forced directory resync on a
// slow cadence and a TTL-honoring league refresh on a fast one.
type Scheduler struct {
	cron      gocron.Scheduler
	refresher *usecase.RefreshService
	cfg       Config
	logger    *logging.Logger
}

func New(cfg Config, refresher *usecase.RefreshService, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{
		cron:      cron,
		refresher: refresher,
		cfg:       cfg,
		logger:    logger,
	}
	if err := s.registerJobs(); err != nil {
		_ = cron.Shutdown()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	if !s.cfg.Enabled {
		return nil
	}

	if s.cfg.DirectoryInterval > 0 {
		_, err := s.cron.NewJob(
			gocron.DurationJob(s.cfg.DirectoryInterval),
			gocron.NewTask(s.runDirectorySync),
			gocron.WithName("directory-sync"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register directory sync job: %w", err)
		}
	}

	if s.cfg.LeagueInterval > 0 {
		_, err := s.cron.NewJob(
			gocron.DurationJob(s.cfg.LeagueInterval),
			gocron.NewTask(s.runLeagueRefresh),
			gocron.WithName("league-refresh"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register league refresh job: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) runDirectorySync() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("scheduled directory sync starting")
	if err := s.refresher.RefreshDirectory(ctx, true); err != nil {
		s.logger.Error("scheduled directory sync failed", "error", err)
		return
	}
	s.logger.Info("scheduled directory sync finished")
}

func (s *Scheduler) runLeagueRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info("scheduled league refresh starting")
	report, err := s.refresher.RefreshAll(ctx, false)
	if err != nil {
		s.logger.Error("scheduled league refresh failed", "error", err)
		return
	}

	failed := 0
	for _, outcome := range report.Leagues {
		if outcome.Status != usecase.RefreshStatusOK {
			failed++
		}
	}
	s.logger.Info("scheduled league refresh finished",
		"leagues", len(report.Leagues),
		"failed", failed,
	)
}

func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		"directory_interval", s.cfg.DirectoryInterval,
		"league_interval", s.cfg.LeagueInterval,
	)
}

func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}
