package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

// ServerConfig carries the HTTP listener knobs.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string
	JobToken        string
}

// NewRouter wires every route with the shared middleware stack. Refresh
// routes additionally require the job token.
func NewRouter(h *Handler, cfg ServerConfig, logger *logging.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	guarded := jobTokenMiddleware(cfg.JobToken)

	mux.HandleFunc("GET /api/v1/players/search", h.SearchPlayers)
	mux.HandleFunc("GET /api/v1/players/{playerID}", h.GetPlayer)
	mux.Handle("POST /api/v1/players/refresh", guarded(http.HandlerFunc(h.RefreshDirectory)))

	mux.HandleFunc("GET /api/v1/leagues/{leagueID}/week", h.ActiveWeek)
	mux.HandleFunc("GET /api/v1/leagues/{leagueID}/players/{playerID}/trend", h.PlayerTrend)
	mux.HandleFunc("POST /api/v1/leagues/{leagueID}/team-totals", h.TeamTotals)
	mux.Handle("POST /api/v1/leagues/{leagueID}/refresh", guarded(http.HandlerFunc(h.RefreshLeague)))

	mux.HandleFunc("GET /api/v1/settings", h.GetSettings)
	mux.HandleFunc("PUT /api/v1/settings", h.UpdateSettings)
	mux.HandleFunc("POST /api/v1/settings/leagues", h.TrackLeague)
	mux.HandleFunc("DELETE /api/v1/settings/leagues/{leagueID}", h.UntrackLeague)

	mux.Handle("POST /api/v1/refresh", guarded(http.HandlerFunc(h.RefreshAll)))

	return chain(mux,
		recoverMiddleware(logger),
		tracingMiddleware,
		requestLogMiddleware(logger),
		corsMiddleware(cfg.AllowedOrigin),
	)
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	http   *http.Server
	cfg    ServerConfig
	logger *logging.Logger
}

func NewServer(handler http.Handler, cfg ServerConfig, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}
