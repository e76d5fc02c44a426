package resilience

import (
	"testing"
	"time"
)

func TestCircuitOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute, 1)

	for i := 0; i < 3; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("expected closed circuit on attempt %d: %v", i, err)
		}
		cb.RecordFailure()
	}

	if err := cb.Allow(); err == nil {
		t.Fatal("expected open circuit after threshold failures")
	}
	if got := cb.State(); got != CircuitStateOpen {
		t.Fatalf("expected open state, got %v", got)
	}
}

func TestCircuitHalfOpensAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, 1)

	_ = cb.Allow()
	cb.RecordFailure()
	if err := cb.Allow(); err == nil {
		t.Fatal("expected open circuit")
	}

	time.Sleep(20 * time.Millisecond)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected half-open to admit a probe: %v", err)
	}
	cb.RecordSuccess()

	if got := cb.State(); got != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %v", got)
	}
}

func TestCircuitReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, 1)

	_ = cb.Allow()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe admission: %v", err)
	}
	cb.RecordFailure()

	if err := cb.Allow(); err == nil {
		t.Fatal("expected circuit to reopen after failed probe")
	}
}

func TestCircuitSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute, 1)

	_ = cb.Allow()
	cb.RecordFailure()
	cb.RecordSuccess()
	_ = cb.Allow()
	cb.RecordFailure()

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected circuit to stay closed, got %v", err)
	}
}
