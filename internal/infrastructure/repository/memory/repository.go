package memory

import (
	"context"
	"sync"

	"github.com/openhuddle/matchwatch/internal/domain/player"
	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
)

// PlayerRepository holds the directory envelope in process memory.
type PlayerRepository struct {
	mu        sync.RWMutex
	directory *cache.Envelope[player.Directory]
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{}
}

func (r *PlayerRepository) GetDirectory(_ context.Context) (cache.Envelope[player.Directory], bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.directory == nil {
		return cache.Envelope[player.Directory]{}, false, nil
	}
	return *r.directory, true, nil
}

func (r *PlayerRepository) SaveDirectory(_ context.Context, env cache.Envelope[player.Directory]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directory = &env
	return nil
}

// SnapshotRepository holds one snapshot envelope per league.
type SnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]cache.Envelope[snapshot.LeagueSnapshot]
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{snapshots: make(map[string]cache.Envelope[snapshot.LeagueSnapshot])}
}

func (r *SnapshotRepository) Get(_ context.Context, leagueID string) (cache.Envelope[snapshot.LeagueSnapshot], bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	env, ok := r.snapshots[leagueID]
	return env, ok, nil
}

func (r *SnapshotRepository) Save(_ context.Context, leagueID string, env cache.Envelope[snapshot.LeagueSnapshot]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[leagueID] = env
	return nil
}

// SettingsRepository holds the tracked-league settings document.
type SettingsRepository struct {
	mu       sync.RWMutex
	current  settings.Settings
	hasValue bool
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

// NewSettingsRepositoryWith seeds the document, used when league ids come
// from configuration instead of a settings editor.
func NewSettingsRepositoryWith(s settings.Settings) *SettingsRepository {
	return &SettingsRepository{current: s, hasValue: true}
}

func (r *SettingsRepository) Get(_ context.Context) (settings.Settings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copySettings(r.current), r.hasValue, nil
}

func (r *SettingsRepository) Save(_ context.Context, s settings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = copySettings(s)
	r.hasValue = true
	return nil
}

// copySettings detaches the league id slice so callers and the stored
// document never alias the same backing array.
func copySettings(s settings.Settings) settings.Settings {
	if s.LeagueIDs != nil {
		s.LeagueIDs = append([]string(nil), s.LeagueIDs...)
	}
	return s
}
