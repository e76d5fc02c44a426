package sqlite

import (
	"context"

	"github.com/openhuddle/matchwatch/internal/domain/player"
	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
)

const (
	directoryKey      = "directory"
	settingsKey       = "settings"
	snapshotKeyPrefix = "snapshot:"
)

type PlayerRepository struct {
	store *Store
}

func NewPlayerRepository(store *Store) *PlayerRepository {
	return &PlayerRepository{store: store}
}

func (r *PlayerRepository) GetDirectory(ctx context.Context) (cache.Envelope[player.Directory], bool, error) {
	return getDocument[cache.Envelope[player.Directory]](ctx, r.store, directoryKey)
}

func (r *PlayerRepository) SaveDirectory(ctx context.Context, env cache.Envelope[player.Directory]) error {
	return setDocument(ctx, r.store, directoryKey, env)
}

type SnapshotRepository struct {
	store *Store
}

func NewSnapshotRepository(store *Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

func (r *SnapshotRepository) Get(ctx context.Context, leagueID string) (cache.Envelope[snapshot.LeagueSnapshot], bool, error) {
	return getDocument[cache.Envelope[snapshot.LeagueSnapshot]](ctx, r.store, snapshotKeyPrefix+leagueID)
}

func (r *SnapshotRepository) Save(ctx context.Context, leagueID string, env cache.Envelope[snapshot.LeagueSnapshot]) error {
	return setDocument(ctx, r.store, snapshotKeyPrefix+leagueID, env)
}

type SettingsRepository struct {
	store *Store
}

func NewSettingsRepository(store *Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

func (r *SettingsRepository) Get(ctx context.Context) (settings.Settings, bool, error) {
	return getDocument[settings.Settings](ctx, r.store, settingsKey)
}

func (r *SettingsRepository) Save(ctx context.Context, s settings.Settings) error {
	return setDocument(ctx, r.store, settingsKey, s)
}
