package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/domain/snapshot"
	"github.com/openhuddle/matchwatch/internal/infrastructure/repository/memory"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

type recordingSnapshots struct {
	refreshed []string
	failFor   map[string]error
}

func (s *recordingSnapshots) Refresh(_ context.Context, leagueID string, _ bool) (snapshot.LeagueSnapshot, error) {
	s.refreshed = append(s.refreshed, leagueID)
	if err, ok := s.failFor[leagueID]; ok {
		return snapshot.LeagueSnapshot{}, err
	}
	return snapshot.LeagueSnapshot{LeagueID: leagueID}, nil
}

func newRefreshFixture(snaps *recordingSnapshots, leagueIDs []string) *RefreshService {
	directories := NewDirectoryService(catalogFeed(), memory.NewPlayerRepository(), time.Hour, logging.NewNop())
	settingsRepo := memory.NewSettingsRepositoryWith(settings.Settings{LeagueIDs: leagueIDs})
	return NewRefreshService(directories, snaps, settingsRepo, logging.NewNop())
}

func TestRefreshAllProcessesLeaguesInOrder(t *testing.T) {
	snaps := &recordingSnapshots{}
	svc := newRefreshFixture(snaps, []string{"L1", "L2", "L3"})

	report, err := svc.RefreshAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Directory != RefreshStatusOK {
		t.Fatalf("expected directory ok, got %q", report.Directory)
	}
	if len(report.Leagues) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(report.Leagues))
	}
	want := []string{"L1", "L2", "L3"}
	for i, leagueID := range want {
		if snaps.refreshed[i] != leagueID {
			t.Fatalf("expected sequential order %v, got %v", want, snaps.refreshed)
		}
		if report.Leagues[i].Status != RefreshStatusOK {
			t.Fatalf("expected ok for %s, got %+v", leagueID, report.Leagues[i])
		}
	}
}

func TestRefreshAllIsolatesLeagueFailures(t *testing.T) {
	snaps := &recordingSnapshots{failFor: map[string]error{"L2": errors.New("boom")}}
	svc := newRefreshFixture(snaps, []string{"L1", "L2", "L3"})

	report, err := svc.RefreshAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snaps.refreshed) != 3 {
		t.Fatalf("expected all leagues attempted, got %v", snaps.refreshed)
	}
	if report.Leagues[1].Status != RefreshStatusFailed || report.Leagues[1].Message == "" {
		t.Fatalf("expected described failure for L2, got %+v", report.Leagues[1])
	}
	if report.Leagues[0].Status != RefreshStatusOK || report.Leagues[2].Status != RefreshStatusOK {
		t.Fatal("expected surrounding leagues unaffected")
	}
}

func TestRefreshAllNoTrackedLeagues(t *testing.T) {
	snaps := &recordingSnapshots{}
	svc := newRefreshFixture(snaps, nil)

	report, err := svc.RefreshAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Leagues) != 0 {
		t.Fatalf("expected empty report, got %+v", report.Leagues)
	}
	if len(snaps.refreshed) != 0 {
		t.Fatalf("expected no refreshes, got %v", snaps.refreshed)
	}
}

func TestRefreshDirectoryLeavesSnapshotsAlone(t *testing.T) {
	snaps := &recordingSnapshots{}
	svc := newRefreshFixture(snaps, []string{"L1"})

	if err := svc.RefreshDirectory(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps.refreshed) != 0 {
		t.Fatalf("expected no league refreshes, got %v", snaps.refreshed)
	}
}

func TestRefreshLeagueSingle(t *testing.T) {
	snaps := &recordingSnapshots{}
	svc := newRefreshFixture(snaps, nil)

	outcome := svc.RefreshLeague(context.Background(), "L9", true)
	if outcome.Status != RefreshStatusOK {
		t.Fatalf("expected ok, got %+v", outcome)
	}
	if len(snaps.refreshed) != 1 || snaps.refreshed[0] != "L9" {
		t.Fatalf("expected single refresh of L9, got %v", snaps.refreshed)
	}
}
