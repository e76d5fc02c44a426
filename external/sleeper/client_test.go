package sleeper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openhuddle/matchwatch/internal/platform/resilience"
)

func newTestClient(baseURL, statsBaseURL string, maxRetries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:      baseURL,
		StatsBaseURL: statsBaseURL,
		Timeout:      2 * time.Second,
		MaxRetries:   maxRetries,
	})
}

func TestGetRostersStringifiesIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/league/abc/rosters" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"roster_id":3,"owner_id":"u1","players":["111","222"],"starters":["111"]}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL, 0)
	rosters, err := client.GetRosters(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rosters) != 1 {
		t.Fatalf("expected one roster, got %d", len(rosters))
	}
	if rosters[0].RosterID != "3" {
		t.Fatalf("expected roster id %q, got %q", "3", rosters[0].RosterID)
	}
}

func TestGetMatchupsStringifiesIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"roster_id":1,"matchup_id":7,"points":101.5,"starters":["111"],"players_points":{"111":21.4}}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL, 0)
	matchups, err := client.GetMatchups(context.Background(), "abc", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matchups[0].RosterID != "1" || matchups[0].MatchupID != "7" {
		t.Fatalf("expected stringified ids, got %+v", matchups[0])
	}
	if matchups[0].PlayersPoints["111"] != 21.4 {
		t.Fatalf("unexpected players_points %+v", matchups[0].PlayersPoints)
	}
}

func TestExecuteRequestRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"week":5,"season":"2025"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL, 1)
	state, err := client.GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Week != 5 {
		t.Fatalf("expected week 5, got %d", state.Week)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected retry, got %d calls", calls.Load())
	}
}

func TestExecuteRequestDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL, 3)
	if _, err := client.GetLeague(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestFetchWeekStatsFallsBackToLegacyFeed(t *testing.T) {
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats/nfl/regular/2025/3" {
			t.Errorf("unexpected legacy path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"123":{"pass_td":2,"pass_yd":250,"opponent":"KC"}}`))
	}))
	defer legacy.Close()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer primary.Close()

	client := newTestClient(legacy.URL, primary.URL, 0)
	feed := client.FetchWeekStats(context.Background(), "2025", 3, map[string]float64{"pass_td": 4, "pass_yd": 0.04})

	if got := feed.Points["123"]; got != 18.00 {
		t.Fatalf("expected legacy feed points 18.00, got %v", got)
	}
	if got := feed.Opponents["123"]; got != "KC" {
		t.Fatalf("expected opponent KC, got %q", got)
	}
}

func TestFetchWeekStatsDegradesToEmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL, 0)
	feed := client.FetchWeekStats(context.Background(), "2025", 3, nil)

	if feed.Points == nil || feed.Opponents == nil {
		t.Fatal("expected non-nil empty feed")
	}
	if len(feed.Points) != 0 {
		t.Fatalf("expected empty feed, got %d entries", len(feed.Points))
	}
}

func TestFetchWeekStatsPrefersPrimaryFeed(t *testing.T) {
	var legacyCalls atomic.Int32
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		legacyCalls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer legacy.Close()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats/nfl/2025/1" {
			t.Errorf("unexpected primary path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("season_type"); got != "regular" {
			t.Errorf("expected season_type=regular, got %q", got)
		}
		_, _ = w.Write([]byte(`{"9":{"pts_ppr":12.5}}`))
	}))
	defer primary.Close()

	client := newTestClient(legacy.URL, primary.URL, 0)
	feed := client.FetchWeekStats(context.Background(), "2025", 1, nil)

	if got := feed.Points["9"]; got != 12.5 {
		t.Fatalf("expected primary feed points, got %v", got)
	}
	if legacyCalls.Load() != 0 {
		t.Fatal("legacy feed must not be hit when primary succeeds")
	}
}

func TestCircuitBreakerBlocksAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:      server.URL,
		StatsBaseURL: server.URL,
		Timeout:      time.Second,
		MaxRetries:   0,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.GetState(context.Background()); err == nil {
			t.Fatal("expected upstream failure")
		}
	}

	_, err := client.GetState(context.Background())
	if err == nil {
		t.Fatal("expected circuit rejection")
	}
}

func TestCircuitBreakerClosesAfterSharedHalfOpenRequests(t *testing.T) {
	var healthy atomic.Bool
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		<-release
		_, _ = w.Write([]byte(`{"week":5,"season":"2025"}`))
	}))
	defer server.Close()

	openTimeout := 20 * time.Millisecond
	client := NewClient(ClientConfig{
		BaseURL:      server.URL,
		StatsBaseURL: server.URL,
		Timeout:      2 * time.Second,
		MaxRetries:   0,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      openTimeout,
			HalfOpenMaxReq:   2,
		},
	})

	if _, err := client.GetState(context.Background()); err == nil {
		t.Fatal("expected upstream failure to trip the breaker")
	}
	healthy.Store(true)
	time.Sleep(openTimeout + 10*time.Millisecond)

	// Two concurrent identical requests share one flight and must reserve
	// exactly one half-open slot between them.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.GetState(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if _, err := client.GetState(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.breaker.State(); got != resilience.CircuitStateClosed {
		t.Fatalf("expected breaker closed after recovery, got %s", got)
	}
}

func TestNewClientLeavesCallerHTTPClientUntouched(t *testing.T) {
	base := &http.Client{}
	client := NewClient(ClientConfig{HTTPClient: base})

	if base.Timeout != 0 {
		t.Fatalf("caller client mutated, timeout now %s", base.Timeout)
	}
	if client.httpClient.Timeout <= 0 {
		t.Fatal("expected the client's own copy to carry a default timeout")
	}
}
