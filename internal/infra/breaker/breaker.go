// Package breaker guards the remote backend against sustained outages.
//
// States:
//   - closed    (normal) → transient failures reach threshold → open
//   - open      (failing fast) → after reset timeout → half_open
//   - half_open (probing) → probes succeed → closed, a probe fails → open
package breaker

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gemral/gem/internal/infra/metrics"
)

// State is the breaker state.
type State int

const (
	Closed   State = iota // calls pass through
	Open                  // calls rejected immediately
	HalfOpen              // probe calls allowed
)

// String returns the state name used in logs and metrics.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned by Allow while the breaker is open.
var ErrOpen = errors.New("circuit breaker open")

// Config configures a breaker.
type Config struct {
	FailureThreshold int           // consecutive transient failures to trip
	ResetTimeout     time.Duration // time open before probing
	HalfOpenProbes   int           // successful probes needed to close
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenProbes:   3,
	}
}

// Breaker is a circuit breaker. Safe for concurrent use.
type Breaker struct {
	mu         sync.Mutex
	name       string
	config     Config
	state      State
	failures   int
	successes  int // successes while half open
	trippedAt  time.Time
	totalTrips int
	now        func() time.Time
}

// New creates a closed breaker. Zero config fields take the defaults.
func New(name string, cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = def.HalfOpenProbes
	}
	b := &Breaker{name: name, config: cfg, state: Closed, now: time.Now}
	metrics.BreakerState.WithLabelValues(name).Set(float64(Closed))
	return b
}

// SetClock replaces the time source.
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probeLocked()
	if b.state == Open {
		return fmt.Errorf("%s: %w", b.name, ErrOpen)
	}
	return nil
}

// RecordSuccess records a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.config.HalfOpenProbes {
			b.setLocked(Closed)
			b.failures = 0
			b.successes = 0
			log.Printf("[breaker] %s closed", b.name)
		}
	case Closed:
		b.failures = 0
	}
}

// RecordFailure records a failed call. May trip the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.tripLocked()
		}
	case HalfOpen:
		b.tripLocked()
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeLocked()
	return b.state
}

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	Name       string    `json:"name"`
	State      string    `json:"state"`
	Failures   int       `json:"failures"`
	TotalTrips int       `json:"total_trips"`
	TrippedAt  time.Time `json:"tripped_at,omitempty"`
}

// Snapshot returns the current state snapshot.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeLocked()
	return Snapshot{
		Name:       b.name,
		State:      b.state.String(),
		Failures:   b.failures,
		TotalTrips: b.totalTrips,
		TrippedAt:  b.trippedAt,
	}
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setLocked(Closed)
	b.failures = 0
	b.successes = 0
}

// probeLocked moves open to half_open once the reset timeout elapsed.
func (b *Breaker) probeLocked() {
	if b.state == Open && b.now().Sub(b.trippedAt) >= b.config.ResetTimeout {
		b.setLocked(HalfOpen)
		b.successes = 0
	}
}

func (b *Breaker) tripLocked() {
	b.setLocked(Open)
	b.trippedAt = b.now()
	b.totalTrips++
	log.Printf("[breaker] %s open after %d failures (trip #%d)", b.name, b.failures, b.totalTrips)
}

func (b *Breaker) setLocked(s State) {
	b.state = s
	metrics.BreakerState.WithLabelValues(b.name).Set(float64(s))
}
