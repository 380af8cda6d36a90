// Package inflight enforces at most one in-flight track call per (user, category).
// Duplicates inside one process are coalesced; with redis configured a duplicate
// running in another process is rejected with domain.ErrInFlight.
package inflight

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/metrics"
)

// DefaultLockTTL bounds how long a crashed holder can block a key.
const DefaultLockTTL = 10 * time.Second

// releaseScript deletes the lock only if it is still owned by the caller.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Guard coalesces concurrent calls sharing a key.
type Guard struct {
	group singleflight.Group
	rdb   *redis.Client
	ttl   time.Duration
}

// New creates a guard. rdb may be nil, in which case only the in-process
// coalescing applies.
func New(rdb *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Guard{rdb: rdb, ttl: ttl}
}

// Key builds the guard key for a user and an operation scope.
func Key(userID uuid.UUID, kind, category string) string {
	return fmt.Sprintf("%s:%s:%s", userID, kind, category)
}

// Do runs fn once per key at a time. Callers arriving while fn runs share
// its result.
func (g *Guard) Do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	v, err, shared := g.group.Do(key, func() (any, error) {
		release, err := g.lock(ctx, key)
		if err != nil {
			return nil, err
		}
		defer release()
		return fn()
	})
	if shared {
		log.Printf("[inflight] coalesced duplicate call %s", key)
	}
	return v, err
}

// lock takes the cross-process lock. A redis failure does not block the call.
func (g *Guard) lock(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if g.rdb == nil {
		return noop, nil
	}

	redisKey := "gem:inflight:" + key
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		log.Printf("[inflight] redis lock unavailable for %s: %v", key, err)
		return noop, nil
	}
	if !ok {
		metrics.InFlightRejected.Inc()
		return nil, fmt.Errorf("%s: %w", key, domain.ErrInFlight)
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, g.rdb, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
			log.Printf("[inflight] release %s: %v", key, err)
		}
	}, nil
}
