package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, logging.LevelInfo, cfg.Log.Level)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DirectoryTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.StateTTL)
	assert.Equal(t, time.Hour, cfg.Snapshot.TTL)
	assert.Equal(t, 18, cfg.Snapshot.SeasonEndWeek)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Empty(t, cfg.Store.Path)
	assert.Empty(t, cfg.TrackedLeagueIDs)
	assert.Equal(t, 3, cfg.Sleeper.MaxRetries)
	assert.True(t, cfg.Sleeper.CircuitEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SNAPSHOT_TTL", "30m")
	t.Setenv("WEEK_FETCH_DELAY", "100ms")
	t.Setenv("TRACKED_LEAGUE_IDS", "L1, L2 ,,L3")
	t.Setenv("SCORING_OVERRIDES", "rec=1.0, pass_td=6")
	t.Setenv("SLEEPER_MAX_RETRIES", "5")
	t.Setenv("STORE_PATH", "/var/lib/matchwatch/data.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, logging.LevelDebug, cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Snapshot.TTL)
	assert.Equal(t, 100*time.Millisecond, cfg.Snapshot.WeekFetchDelay)
	assert.Equal(t, 5, cfg.Sleeper.MaxRetries)
	assert.Equal(t, "/var/lib/matchwatch/data.db", cfg.Store.Path)
	assert.Equal(t, []string{"L1", "L2", "L3"}, cfg.TrackedLeagueIDs)
	assert.Equal(t, map[string]float64{"rec": 1.0, "pass_td": 6}, cfg.Snapshot.ScoringOverrides)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"SNAPSHOT_TTL":        "soon",
		"WEEK_FETCH_DELAY":    "-5s",
		"SLEEPER_MAX_RETRIES": "three",
		"SCHEDULER_ENABLED":   "maybe",
		"LOG_LEVEL":           "loud",
		"SEASON_END_WEEK":     "99",
		"SCORING_OVERRIDES":   "rec:1.0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
