// Package cache is the read-through cache and degradation layer in front of
// the remote analytics reads. Entries are keyed by (namespace, user) and kept
// past their freshness window so stale data can be served when a load fails.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/metrics"
)

// Default freshness and retention windows.
const (
	DefaultHealthTTL    = 60 * time.Second
	DefaultAnalyticsTTL = 5 * time.Minute
	DefaultRetention    = 24 * time.Hour
)

// Source tells where a fetched value came from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
	SourceStale  Source = "stale"
)

// envelope is the stored form of every entry.
type envelope struct {
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Data      json.RawMessage `json:"data"`
}

// ─── Manager ────────────────────────────────────────────────────────────────

// Manager owns the store and the namespace registry.
type Manager struct {
	store     Store
	retention time.Duration
	now       func() time.Time

	mu         sync.Mutex
	namespaces map[string]struct{}
}

// NewManager creates a manager over store. retention <= 0 uses DefaultRetention.
func NewManager(store Store, retention time.Duration) *Manager {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Manager{
		store:      store,
		retention:  retention,
		now:        time.Now,
		namespaces: make(map[string]struct{}),
	}
}

// SetClock overrides the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Namespaces returns the registered namespaces, sorted.
func (m *Manager) Namespaces() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.namespaces))
	for ns := range m.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// InvalidateUser drops every cached entry of a user. Called on logout.
func (m *Manager) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	namespaces := m.Namespaces()
	keys := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		keys = append(keys, entryKey(ns, userID))
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate user %s: %w", userID, err)
	}
	log.Printf("[cache] invalidated %d namespaces for %s", len(keys), userID)
	return nil
}

func entryKey(ns string, userID uuid.UUID) string {
	return "gem:" + ns + ":" + userID.String()
}

// ─── Typed Cache ────────────────────────────────────────────────────────────

// Cache is a typed view of one namespace.
type Cache[T any] struct {
	m   *Manager
	ns  string
	ttl time.Duration
}

// NewCache registers ns on m and returns a typed cache with freshness ttl.
// Registering the same namespace twice panics.
func NewCache[T any](m *Manager, ns string, ttl time.Duration) *Cache[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.namespaces[ns]; dup {
		panic("cache: duplicate namespace " + ns)
	}
	m.namespaces[ns] = struct{}{}
	return &Cache[T]{m: m, ns: ns, ttl: ttl}
}

// Namespace returns the cache's namespace.
func (c *Cache[T]) Namespace() string { return c.ns }

// Get returns the value only while fresh.
func (c *Cache[T]) Get(ctx context.Context, userID uuid.UUID) (T, bool) {
	v, env, ok := c.read(ctx, userID)
	if !ok || !c.m.now().Before(env.ExpiresAt) {
		var zero T
		return zero, false
	}
	return v, true
}

// GetStale returns the value regardless of freshness, with the time it was stored.
func (c *Cache[T]) GetStale(ctx context.Context, userID uuid.UUID) (T, time.Time, bool) {
	v, env, ok := c.read(ctx, userID)
	return v, env.StoredAt, ok
}

// Set stores v as fresh.
func (c *Cache[T]) Set(ctx context.Context, userID uuid.UUID, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.ns, err)
	}
	now := c.m.now()
	b, err := json.Marshal(envelope{StoredAt: now, ExpiresAt: now.Add(c.ttl), Data: data})
	if err != nil {
		return err
	}
	return c.m.store.Set(ctx, entryKey(c.ns, userID), b, c.m.retention)
}

// Invalidate drops the user's entry.
func (c *Cache[T]) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.m.store.Delete(ctx, entryKey(c.ns, userID))
}

// Fetch returns the fresh cached value unless force is set, else calls load
// and stores its result. When load fails and a stale entry exists, the stale
// entry is returned without error.
func (c *Cache[T]) Fetch(ctx context.Context, userID uuid.UUID, force bool, load func(context.Context) (T, error)) (T, Source, error) {
	if !force {
		if v, ok := c.Get(ctx, userID); ok {
			metrics.CacheRequests.WithLabelValues(c.ns, "hit").Inc()
			return v, SourceCache, nil
		}
	}
	metrics.CacheRequests.WithLabelValues(c.ns, "miss").Inc()

	v, err := load(ctx)
	if err != nil {
		if stale, at, ok := c.GetStale(ctx, userID); ok {
			metrics.CacheRequests.WithLabelValues(c.ns, "stale").Inc()
			log.Printf("[cache] %s load failed for %s, serving entry from %s: %v",
				c.ns, userID, at.Format(time.RFC3339), err)
			return stale, SourceStale, nil
		}
		var zero T
		return zero, SourceRemote, err
	}

	if err := c.Set(ctx, userID, v); err != nil {
		log.Printf("[cache] store %s for %s: %v", c.ns, userID, err)
	}
	return v, SourceRemote, nil
}

func (c *Cache[T]) read(ctx context.Context, userID uuid.UUID) (T, envelope, bool) {
	var zero T
	raw, err := c.m.store.Get(ctx, entryKey(c.ns, userID))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[cache] read %s for %s: %v", c.ns, userID, err)
		}
		return zero, envelope{}, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[cache] corrupt %s entry for %s: %v", c.ns, userID, err)
		return zero, envelope{}, false
	}
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		log.Printf("[cache] corrupt %s payload for %s: %v", c.ns, userID, err)
		return zero, envelope{}, false
	}
	return v, env, true
}
