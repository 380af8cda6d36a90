// Package health runs periodic dependency checks for gem serve.
// Checks cover the remote backend, the redis lock/cache store, the device
// sqlite store and the data directory.
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gemral/gem/internal/infra/breaker"
	"github.com/gemral/gem/internal/infra/metrics"
	"github.com/gemral/gem/internal/infra/sqlite"
)

// DefaultInterval is the period between check rounds.
const DefaultInterval = 60 * time.Second

// checkTimeout bounds a single check.
const checkTimeout = 5 * time.Second

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a health checker over the given checks.
func NewChecker(checks ...Check) *Checker {
	return &Checker{interval: DefaultInterval, checks: checks}
}

// SetInterval changes the period between rounds. Non-positive keeps the default.
func (c *Checker) SetInterval(d time.Duration) {
	if d > 0 {
		c.interval = d
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check and stores the results.
func (c *Checker) RunOnce(ctx context.Context) []Status {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		if err := check.CheckFn(cctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			// Attempt recovery
			if check.RecoverFn != nil {
				_ = check.RecoverFn(cctx)
			}
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
		} else {
			s.Healthy = true
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		}
		cancel()
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
	return statuses
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

// Pinger is anything with a context-aware ping, such as backend.Postgres.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SQLite checks the device store.
func SQLite(db *sqlite.DB) Check {
	return Check{
		Name: "sqlite",
		CheckFn: func(ctx context.Context) error {
			return db.Ping()
		},
		RecoverFn: func(ctx context.Context) error {
			return nil // SQLite auto-recovers via WAL
		},
	}
}

// Postgres checks the remote backend pool.
func Postgres(p Pinger) Check {
	return Check{
		Name: "postgres",
		CheckFn: func(ctx context.Context) error {
			return p.Ping(ctx)
		},
	}
}

// Redis checks the redis client used for locks and cache.
func Redis(rdb *redis.Client) Check {
	return Check{
		Name: "redis",
		CheckFn: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
}

// Breaker reports an open backend circuit breaker as unhealthy.
func Breaker(b *breaker.Breaker) Check {
	return Check{
		Name: "breaker",
		CheckFn: func(ctx context.Context) error {
			if st := b.State(); st == breaker.Open {
				return fmt.Errorf("%s breaker %s", b.Name(), st)
			}
			return nil
		},
	}
}

// DataDir checks that the data directory exists and is a directory.
// A missing directory is recreated.
func DataDir(dir string) Check {
	return Check{
		Name: "data_dir",
		CheckFn: func(ctx context.Context) error {
			return checkDir(dir)
		},
		RecoverFn: func(ctx context.Context) error {
			return os.MkdirAll(dir, 0700)
		},
	}
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
