package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/infrastructure/repository/memory"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

func TestSettingsGetDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewSettingsRepository(), logging.NewNop())

	current, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.LeagueIDs == nil || len(current.LeagueIDs) != 0 {
		t.Fatalf("expected empty league list, got %v", current.LeagueIDs)
	}
	if !current.ShowRanks || !current.ShowProjections {
		t.Fatal("expected display toggles on by default")
	}
}

func TestSettingsUpdateCleansLeagueIDs(t *testing.T) {
	svc := NewSettingsService(memory.NewSettingsRepository(), logging.NewNop())

	updated, err := svc.Update(context.Background(), settings.Settings{
		LeagueIDs: []string{" L1 ", "", "L2", "L1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"L1", "L2"}
	if len(updated.LeagueIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, updated.LeagueIDs)
	}
	for i := range want {
		if updated.LeagueIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, updated.LeagueIDs)
		}
	}
}

func TestTrackAndUntrackLeague(t *testing.T) {
	svc := NewSettingsService(memory.NewSettingsRepository(), logging.NewNop())
	ctx := context.Background()

	if _, err := svc.TrackLeague(ctx, "L1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	current, err := svc.TrackLeague(ctx, "L1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(current.LeagueIDs) != 1 {
		t.Fatalf("expected idempotent tracking, got %v", current.LeagueIDs)
	}

	current, err = svc.UntrackLeague(ctx, "L1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(current.LeagueIDs) != 0 {
		t.Fatalf("expected league removed, got %v", current.LeagueIDs)
	}

	if _, err := svc.TrackLeague(ctx, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUntrackLeagueLeavesEarlierSnapshotsIntact(t *testing.T) {
	repo := memory.NewSettingsRepositoryWith(settings.Settings{LeagueIDs: []string{"a", "b", "c"}})
	svc := NewSettingsService(repo, logging.NewNop())
	ctx := context.Background()

	before, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UntrackLeague(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.LeagueIDs) != 2 || updated.LeagueIDs[0] != "b" || updated.LeagueIDs[1] != "c" {
		t.Fatalf("expected [b c], got %v", updated.LeagueIDs)
	}

	want := []string{"a", "b", "c"}
	if len(before.LeagueIDs) != len(want) {
		t.Fatalf("earlier snapshot resized to %v", before.LeagueIDs)
	}
	for i := range want {
		if before.LeagueIDs[i] != want[i] {
			t.Fatalf("earlier snapshot corrupted: want %v, got %v", want, before.LeagueIDs)
		}
	}
}
