package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

// Config is the full runtime configuration, loaded from the environment.
type Config struct {
	HTTP      HTTPConfig
	Log       LogConfig
	Sleeper   SleeperConfig
	Cache     CacheConfig
	Snapshot  SnapshotConfig
	Store     StoreConfig
	Scheduler SchedulerConfig

	TrackedLeagueIDs []string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string
	JobToken        string
}

type LogConfig struct {
	Level logging.Level
}

type SleeperConfig struct {
	BaseURL          string
	StatsBaseURL     string
	Timeout          time.Duration
	MaxRetries       int
	CircuitEnabled   bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

type CacheConfig struct {
	DirectoryTTL time.Duration
	StateTTL     time.Duration
	MatchupTTL   time.Duration
}

type SnapshotConfig struct {
	TTL              time.Duration
	WeekFetchDelay   time.Duration
	SeasonEndWeek    int
	ScoringOverrides map[string]float64
}

type StoreConfig struct {
	// Path points at the sqlite database file. Empty keeps everything in
	// memory, which is the default for local runs and tests.
	Path string
}

type SchedulerConfig struct {
	Enabled           bool
	DirectoryInterval time.Duration
	LeagueInterval    time.Duration
}

// Load reads every setting from the environment, applying defaults and
// validating each variable individually so a bad value names itself.
func Load() (Config, error) {
	cfg := Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.AllowedOrigin = getEnv("HTTP_CORS_ORIGIN", "")
	cfg.HTTP.JobToken = getEnv("INTERNAL_JOB_TOKEN", "")

	var err error
	if cfg.HTTP.ReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.WriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.IdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.ShutdownTimeout, err = getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.Log.Level, err = getLogLevel("LOG_LEVEL", logging.LevelInfo); err != nil {
		return Config{}, err
	}

	cfg.Sleeper.BaseURL = getEnv("SLEEPER_BASE_URL", "")
	cfg.Sleeper.StatsBaseURL = getEnv("SLEEPER_STATS_BASE_URL", "")
	if cfg.Sleeper.Timeout, err = getDuration("SLEEPER_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Sleeper.MaxRetries, err = getInt("SLEEPER_MAX_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if cfg.Sleeper.CircuitEnabled, err = getBool("SLEEPER_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.Sleeper.FailureThreshold, err = getInt("SLEEPER_CIRCUIT_FAILURE_THRESHOLD", 5); err != nil {
		return Config{}, err
	}
	if cfg.Sleeper.OpenTimeout, err = getDuration("SLEEPER_CIRCUIT_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Sleeper.HalfOpenMaxReq, err = getInt("SLEEPER_CIRCUIT_HALF_OPEN_MAX", 2); err != nil {
		return Config{}, err
	}

	if cfg.Cache.DirectoryTTL, err = getDuration("DIRECTORY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Cache.StateTTL, err = getDuration("STATE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Cache.MatchupTTL, err = getDuration("MATCHUP_CACHE_TTL", 2*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.Snapshot.TTL, err = getDuration("SNAPSHOT_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Snapshot.WeekFetchDelay, err = getDuration("WEEK_FETCH_DELAY", 250*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.Snapshot.SeasonEndWeek, err = getInt("SEASON_END_WEEK", 18); err != nil {
		return Config{}, err
	}
	if cfg.Snapshot.SeasonEndWeek < 1 || cfg.Snapshot.SeasonEndWeek > 25 {
		return Config{}, fmt.Errorf("SEASON_END_WEEK must be between 1 and 25, got %d", cfg.Snapshot.SeasonEndWeek)
	}
	if cfg.Snapshot.ScoringOverrides, err = getScoringOverrides("SCORING_OVERRIDES"); err != nil {
		return Config{}, err
	}

	cfg.Store.Path = getEnv("STORE_PATH", "")

	if cfg.Scheduler.Enabled, err = getBool("SCHEDULER_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.Scheduler.DirectoryInterval, err = getDuration("DIRECTORY_SYNC_INTERVAL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Scheduler.LeagueInterval, err = getDuration("LEAGUE_REFRESH_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}

	cfg.TrackedLeagueIDs = splitCSV(getEnv("TRACKED_LEAGUE_IDS", ""))

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s or 5m, got %q", key, raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %q", key, raw)
	}
	return value, nil
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return value, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return value, nil
}

func getLogLevel(key string, fallback logging.Level) (logging.Level, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	switch strings.ToLower(raw) {
	case "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn", "warning":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return fallback, fmt.Errorf("%s must be one of debug, info, warn, error, got %q", key, raw)
	}
}

// getScoringOverrides parses "stat=weight" pairs separated by commas, for
// example "rec=1.0,pass_td=6". An empty variable means no overrides.
func getScoringOverrides(key string) (map[string]float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return nil, nil
	}

	overrides := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		stat, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("%s entries must look like stat=weight, got %q", key, pair)
		}
		stat = strings.TrimSpace(stat)
		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%s weight for %q must be a number, got %q", key, stat, value)
		}
		if stat == "" {
			return nil, fmt.Errorf("%s entries must name a stat, got %q", key, pair)
		}
		overrides[stat] = weight
	}
	return overrides, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
