package breaker

import (
	"errors"
	"testing"
	"time"
)

// ─── Helpers ────────────────────────────────────────────────────────────────

func newTestBreaker(t *testing.T, clock *time.Time) *Breaker {
	t.Helper()
	b := New("test", Config{
		FailureThreshold: 3,
		ResetTimeout:     time.Second,
		HalfOpenProbes:   2,
	})
	b.SetClock(func() time.Time { return *clock })
	return b
}

func trip(b *Breaker, n int) {
	for i := 0; i < n; i++ {
		b.RecordFailure()
	}
}

// ─── State ──────────────────────────────────────────────────────────────────

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half_open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	b := New("defaults", Config{})
	if b.config != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", b.config)
	}
	if b.State() != Closed {
		t.Errorf("initial state = %s, want closed", b.State())
	}
}

// ─── Transitions ────────────────────────────────────────────────────────────

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	clock := time.Now()
	b := newTestBreaker(t, &clock)

	trip(b, 2)
	if err := b.Allow(); err != nil {
		t.Fatalf("below threshold should allow, got %v", err)
	}
	b.RecordFailure()
	if b.State() != Open {
		t.Fatalf("state = %s, want open", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	clock := time.Now()
	b := newTestBreaker(t, &clock)

	trip(b, 2)
	b.RecordSuccess()
	trip(b, 2)
	if b.State() != Closed {
		t.Errorf("failures should not accumulate across a success, state = %s", b.State())
	}
}

func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	clock := time.Now()
	b := newTestBreaker(t, &clock)
	trip(b, 3)

	clock = clock.Add(500 * time.Millisecond)
	if b.State() != Open {
		t.Errorf("state before timeout = %s, want open", b.State())
	}
	clock = clock.Add(time.Second)
	if err := b.Allow(); err != nil {
		t.Errorf("half open should allow probes, got %v", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("state = %s, want half_open", b.State())
	}
}

func TestBreaker_ProbesClose(t *testing.T) {
	clock := time.Now()
	b := newTestBreaker(t, &clock)
	trip(b, 3)
	clock = clock.Add(2 * time.Second)
	_ = b.Allow()

	b.RecordSuccess()
	if b.State() != HalfOpen {
		t.Errorf("one probe should not close, state = %s", b.State())
	}
	b.RecordSuccess()
	if b.State() != Closed {
		t.Errorf("state after 2 probes = %s, want closed", b.State())
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	clock := time.Now()
	b := newTestBreaker(t, &clock)
	trip(b, 3)
	clock = clock.Add(2 * time.Second)
	_ = b.Allow()

	b.RecordFailure()
	if b.State() != Open {
		t.Errorf("state = %s, want open", b.State())
	}
	if snap := b.Snapshot(); snap.TotalTrips != 2 {
		t.Errorf("expected 2 trips, got %d", snap.TotalTrips)
	}
}

func TestBreaker_Reset(t *testing.T) {
	clock := time.Now()
	b := newTestBreaker(t, &clock)
	trip(b, 3)
	b.Reset()
	if err := b.Allow(); err != nil {
		t.Errorf("reset breaker should allow, got %v", err)
	}
	if snap := b.Snapshot(); snap.State != "closed" || snap.Failures != 0 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
