package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/sqlite"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*sqlite.CacheStore)(nil)
)

type snapshot struct {
	Pct    float64 `json:"pct"`
	Status string  `json:"status"`
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = clk.now
	m := NewManager(store, time.Hour)
	m.SetClock(clk.now)
	return m, store, clk
}

// ─── Freshness ──────────────────────────────────────────────────────────────

func TestCache_FreshThenStale(t *testing.T) {
	m, _, clk := newTestManager(t)
	c := NewCache[snapshot](m, "health", time.Minute)
	ctx := context.Background()
	user := uuid.New()

	if _, ok := c.Get(ctx, user); ok {
		t.Fatal("expected miss on empty cache")
	}

	_ = c.Set(ctx, user, snapshot{Pct: 91, Status: "healthy"})
	got, ok := c.Get(ctx, user)
	if !ok || got.Status != "healthy" {
		t.Errorf("expected fresh hit, got %+v %v", got, ok)
	}

	clk.advance(2 * time.Minute)
	if _, ok := c.Get(ctx, user); ok {
		t.Error("expected Get to miss after ttl")
	}
	stale, at, ok := c.GetStale(ctx, user)
	if !ok || stale.Pct != 91 {
		t.Errorf("expected stale entry, got %+v %v", stale, ok)
	}
	if !at.Equal(clk.t.Add(-2 * time.Minute)) {
		t.Errorf("expected stored_at of the original write, got %v", at)
	}

	clk.advance(2 * time.Hour)
	if _, _, ok := c.GetStale(ctx, user); ok {
		t.Error("expected entry past retention to be gone")
	}
}

// ─── Fetch ──────────────────────────────────────────────────────────────────

func TestCache_Fetch(t *testing.T) {
	m, _, clk := newTestManager(t)
	c := NewCache[snapshot](m, "health", time.Minute)
	ctx := context.Background()
	user := uuid.New()

	loads := 0
	load := func(context.Context) (snapshot, error) {
		loads++
		return snapshot{Pct: float64(loads)}, nil
	}

	v, src, err := c.Fetch(ctx, user, false, load)
	if err != nil || src != SourceRemote || v.Pct != 1 {
		t.Fatalf("expected remote load, got %+v %s %v", v, src, err)
	}

	v, src, _ = c.Fetch(ctx, user, false, load)
	if src != SourceCache || v.Pct != 1 || loads != 1 {
		t.Errorf("expected cache hit without load, got %+v %s (loads=%d)", v, src, loads)
	}

	v, src, _ = c.Fetch(ctx, user, true, load)
	if src != SourceRemote || v.Pct != 2 {
		t.Errorf("expected forced reload, got %+v %s", v, src)
	}

	clk.advance(time.Minute)
	v, src, _ = c.Fetch(ctx, user, false, load)
	if src != SourceRemote || v.Pct != 3 {
		t.Errorf("expected reload after ttl, got %+v %s", v, src)
	}
}

func TestCache_FetchServesStaleOnFailure(t *testing.T) {
	m, _, clk := newTestManager(t)
	c := NewCache[snapshot](m, "analytics", time.Minute)
	ctx := context.Background()
	user := uuid.New()
	boom := errors.New("backend down")

	failing := func(context.Context) (snapshot, error) { return snapshot{}, boom }

	_, _, err := c.Fetch(ctx, user, false, failing)
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error with nothing cached, got %v", err)
	}

	_ = c.Set(ctx, user, snapshot{Status: "warning"})
	clk.advance(10 * time.Minute)

	v, src, err := c.Fetch(ctx, user, false, failing)
	if err != nil || src != SourceStale || v.Status != "warning" {
		t.Errorf("expected stale value, got %+v %s %v", v, src, err)
	}
}

// ─── Invalidation ───────────────────────────────────────────────────────────

func TestManager_InvalidateUser(t *testing.T) {
	m, store, _ := newTestManager(t)
	health := NewCache[snapshot](m, "health", time.Minute)
	progress := NewCache[[]int](m, "progress", time.Minute)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	_ = health.Set(ctx, alice, snapshot{Pct: 1})
	_ = progress.Set(ctx, alice, []int{1, 2})
	_ = health.Set(ctx, bob, snapshot{Pct: 2})

	if err := m.InvalidateUser(ctx, alice); err != nil {
		t.Fatalf("InvalidateUser() error: %v", err)
	}
	if _, ok := health.Get(ctx, alice); ok {
		t.Error("alice health should be gone")
	}
	if _, ok := progress.Get(ctx, alice); ok {
		t.Error("alice progress should be gone")
	}
	if _, ok := health.Get(ctx, bob); !ok {
		t.Error("bob should be untouched")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", store.Len())
	}

	if got := m.Namespaces(); len(got) != 2 || got[0] != "health" || got[1] != "progress" {
		t.Errorf("unexpected namespaces %v", got)
	}
}

func TestNewCache_DuplicateNamespacePanics(t *testing.T) {
	m, _, _ := newTestManager(t)
	NewCache[snapshot](m, "health", time.Minute)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate namespace")
		}
	}()
	NewCache[snapshot](m, "health", time.Minute)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	m, store, _ := newTestManager(t)
	c := NewCache[snapshot](m, "health", time.Minute)
	ctx := context.Background()
	user := uuid.New()

	_ = store.Set(ctx, entryKey("health", user), []byte("not json"), time.Hour)
	if _, _, ok := c.GetStale(ctx, user); ok {
		t.Error("corrupt entry should read as a miss")
	}
}

// ─── Stores ─────────────────────────────────────────────────────────────────

func TestCache_SQLiteStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	user := uuid.New()

	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	c := NewCache[snapshot](NewManager(db.CacheStore(), time.Hour), "health", time.Minute)
	_ = c.Set(ctx, user, snapshot{Status: "danger"})
	db.Close()

	db, err = sqlite.Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	c = NewCache[snapshot](NewManager(db.CacheStore(), time.Hour), "health", time.Minute)
	v, _, ok := c.GetStale(ctx, user)
	if !ok || v.Status != "danger" {
		t.Errorf("expected entry after reopen, got %+v %v", v, ok)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("GEM_TEST_REDIS_URL")
	if url == "" {
		t.Skip("GEM_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL() error: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	store := NewRedisStore(rdb)
	ctx := context.Background()
	key := "gem:test:" + uuid.NewString()

	if _, err := store.Get(ctx, key); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if err := store.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got, err := store.Get(ctx, key); err != nil || string(got) != "v" {
		t.Errorf("expected v, got %q %v", got, err)
	}
	_ = store.Delete(ctx, key)
	if _, err := store.Get(ctx, key); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected miss after delete, got %v", err)
	}
}
