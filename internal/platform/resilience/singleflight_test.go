package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlightCollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _, _ = g.Do("key", func() (any, error) {
			close(started)
			<-release
			executions.Add(1)
			return "result", nil
		})
	}()
	<-started

	var wg sync.WaitGroup
	sharedCount := atomic.Int32{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err, shared := g.Do("key", func() (any, error) {
				executions.Add(1)
				return "result", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if value != "result" {
				t.Errorf("unexpected value %v", value)
			}
			if shared {
				sharedCount.Add(1)
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
	if got := sharedCount.Load(); got != 4 {
		t.Fatalf("expected all waiters to share, got %d", got)
	}
}

func TestSingleFlightSharesErrors(t *testing.T) {
	var g SingleFlight
	wantErr := errors.New("boom")

	_, err, _ := g.Do("key", func() (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}

	// The key is cleared; a fresh call runs again.
	value, err, shared := g.Do("key", func() (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shared {
		t.Fatal("expected a fresh execution after completion")
	}
	if value != "ok" {
		t.Fatalf("unexpected value %v", value)
	}
}

func TestSingleFlightDistinctKeysRunIndependently(t *testing.T) {
	var g SingleFlight

	a, _, _ := g.Do("a", func() (any, error) { return 1, nil })
	b, _, _ := g.Do("b", func() (any, error) { return 2, nil })

	if a != 1 || b != 2 {
		t.Fatalf("unexpected values a=%v b=%v", a, b)
	}
}
