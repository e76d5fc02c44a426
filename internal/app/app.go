package app

import (
	"context"
	"fmt"

	"github.com/openhuddle/matchwatch/external/sleeper"
	"github.com/openhuddle/matchwatch/internal/config"
	"github.com/openhuddle/matchwatch/internal/domain/player"
	domsettings "github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
	"github.com/openhuddle/matchwatch/internal/infrastructure/repository/memory"
	"github.com/openhuddle/matchwatch/internal/infrastructure/repository/sqlite"
	"github.com/openhuddle/matchwatch/internal/interfaces/httpapi"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
	"github.com/openhuddle/matchwatch/internal/platform/resilience"
	"github.com/openhuddle/matchwatch/internal/scheduler"
	"github.com/openhuddle/matchwatch/internal/usecase"
)

// App owns every long-lived component and its shutdown order.
type App struct {
	Server    *httpapi.Server
	Scheduler *scheduler.Scheduler
	Logger    *logging.Logger

	store *sqlite.Store
}

func New(cfg config.Config) (*App, error) {
	logger := logging.NewJSON(cfg.Log.Level)
	logging.SetDefault(logger)

	playerRepo, snapshotRepo, settingsRepo, store, err := buildRepositories(cfg)
	if err != nil {
		return nil, err
	}

	client := sleeper.NewClient(sleeper.ClientConfig{
		BaseURL:      cfg.Sleeper.BaseURL,
		StatsBaseURL: cfg.Sleeper.StatsBaseURL,
		Timeout:      cfg.Sleeper.Timeout,
		MaxRetries:   cfg.Sleeper.MaxRetries,
		Logger:       logger.With("component", "sleeper"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.Sleeper.CircuitEnabled,
			FailureThreshold: cfg.Sleeper.FailureThreshold,
			OpenTimeout:      cfg.Sleeper.OpenTimeout,
			HalfOpenMaxReq:   cfg.Sleeper.HalfOpenMaxReq,
		},
	})

	stateSvc := usecase.NewStateService(client, cache.NewStore(cfg.Cache.StateTTL), logger.With("component", "state"))
	directorySvc := usecase.NewDirectoryService(client, playerRepo, cfg.Cache.DirectoryTTL, logger.With("component", "directory"))
	snapshotSvc := usecase.NewSnapshotService(client, directorySvc, stateSvc, snapshotRepo, usecase.SnapshotConfig{
		TTL:              cfg.Snapshot.TTL,
		WeekFetchDelay:   cfg.Snapshot.WeekFetchDelay,
		SeasonEndWeek:    cfg.Snapshot.SeasonEndWeek,
		ScoringOverrides: cfg.Snapshot.ScoringOverrides,
	}, logger.With("component", "snapshot"))
	querySvc := usecase.NewQueryService(snapshotSvc, stateSvc, client, cache.NewStore(cfg.Cache.MatchupTTL), logger.With("component", "query"))
	refreshSvc := usecase.NewRefreshService(directorySvc, snapshotSvc, settingsRepo, logger.With("component", "refresh"))
	settingsSvc := usecase.NewSettingsService(settingsRepo, logger.With("component", "settings"))

	handler := httpapi.NewHandler(directorySvc, querySvc, refreshSvc, settingsSvc, logger.With("component", "httpapi"))
	serverCfg := httpapi.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		AllowedOrigin:   cfg.HTTP.AllowedOrigin,
		JobToken:        cfg.HTTP.JobToken,
	}
	router := httpapi.NewRouter(handler, serverCfg, logger.With("component", "httpapi"))
	server := httpapi.NewServer(router, serverCfg, logger)

	cron, err := scheduler.New(scheduler.Config{
		Enabled:           cfg.Scheduler.Enabled,
		DirectoryInterval: cfg.Scheduler.DirectoryInterval,
		LeagueInterval:    cfg.Scheduler.LeagueInterval,
	}, refreshSvc, logger.With("component", "scheduler"))
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	return &App{
		Server:    server,
		Scheduler: cron,
		Logger:    logger,
		store:     store,
	}, nil
}

// buildRepositories picks the persistence backend. A configured store path
// gets sqlite; otherwise everything lives in memory. Tracked league ids
// from configuration seed the settings document only when none is persisted
// yet, so runtime edits win over the environment.
func buildRepositories(cfg config.Config) (player.Repository, snapshot.Repository, domsettings.Repository, *sqlite.Store, error) {
	seed := domsettings.Settings{
		LeagueIDs:       cfg.TrackedLeagueIDs,
		ShowRanks:       true,
		ShowProjections: true,
	}

	if cfg.Store.Path == "" {
		return memory.NewPlayerRepository(),
			memory.NewSnapshotRepository(),
			memory.NewSettingsRepositoryWith(seed),
			nil, nil
	}

	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open store at %s: %w", cfg.Store.Path, err)
	}

	settingsRepo := sqlite.NewSettingsRepository(store)
	if _, ok, getErr := settingsRepo.Get(context.Background()); getErr == nil && !ok && len(seed.LeagueIDs) > 0 {
		if saveErr := settingsRepo.Save(context.Background(), seed); saveErr != nil {
			_ = store.Close()
			return nil, nil, nil, nil, fmt.Errorf("seed settings: %w", saveErr)
		}
	}

	return sqlite.NewPlayerRepository(store),
		sqlite.NewSnapshotRepository(store),
		settingsRepo,
		store, nil
}

func (a *App) Start() error {
	a.Scheduler.Start()
	return a.Server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := a.Scheduler.Stop(); err != nil {
		firstErr = err
	}
	if err := a.Server.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = a.Logger.Sync()
	return firstErr
}
