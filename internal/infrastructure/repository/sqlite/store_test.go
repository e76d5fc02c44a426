package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/openhuddle/matchwatch/internal/domain/player"
	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
	"github.com/openhuddle/matchwatch/internal/platform/cache"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "matchwatch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPlayerRepositoryPersistsEnvelope(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository(newTestStore(t))

	if _, ok, err := repo.GetDirectory(ctx); err != nil || ok {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}

	env := cache.Wrap(player.Directory{
		LastSync: time.Now().UTC(),
		Records:  map[string]player.Record{"p1": {ID: "p1", Team: "KC", Position: "QB"}},
	})
	if err := repo.SaveDirectory(ctx, env); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := repo.GetDirectory(ctx)
	if err != nil || !ok {
		t.Fatalf("expected stored envelope, ok=%v err=%v", ok, err)
	}
	if got.Version != cache.SchemaVersion {
		t.Fatalf("expected version preserved, got %d", got.Version)
	}
	if got.Payload.Records["p1"].Team != "KC" {
		t.Fatalf("unexpected payload %+v", got.Payload)
	}
}

func TestSnapshotRepositoryOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotRepository(newTestStore(t))

	if err := repo.Save(ctx, "L1", cache.Wrap(snapshot.LeagueSnapshot{LeagueID: "L1", CurrentWeek: 3})); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, "L1", cache.Wrap(snapshot.LeagueSnapshot{LeagueID: "L1", CurrentWeek: 4})); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	env, ok, err := repo.Get(ctx, "L1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if env.Payload.CurrentWeek != 4 {
		t.Fatalf("expected whole-document replacement, got week %d", env.Payload.CurrentWeek)
	}
}

func TestSettingsRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(newTestStore(t))

	if err := repo.Save(ctx, settings.Settings{LeagueIDs: []string{"L1", "L2"}, ShowRanks: true}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := repo.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got.LeagueIDs) != 2 || !got.ShowRanks {
		t.Fatalf("unexpected settings %+v", got)
	}
}
