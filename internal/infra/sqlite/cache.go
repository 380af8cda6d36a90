package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gemral/gem/internal/domain"
)

// ─── Cache Entries ──────────────────────────────────────────────────────────

// CacheStore exposes cache_entries as a cache.Store.
type CacheStore struct {
	d   *DB
	now func() time.Time
}

// CacheStore returns the cache view of the database.
func (d *DB) CacheStore() *CacheStore {
	return &CacheStore{d: d, now: time.Now}
}

// Get returns the stored value, or domain.ErrCacheMiss when absent or past retention.
func (c *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.d.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE key = ? AND expires_at > ?`,
		key, c.now().Unix(),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCacheMiss
	}
	return value, err
}

// Set stores value, retained for retain.
func (c *CacheStore) Set(ctx context.Context, key string, value []byte, retain time.Duration) error {
	now := c.now()
	_, err := c.d.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, stored_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value,
		   stored_at=excluded.stored_at, expires_at=excluded.expires_at`,
		key, value, now.Unix(), now.Add(retain).Unix(),
	)
	return err
}

// Delete removes keys. Missing keys are ignored.
func (c *CacheStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := c.d.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key IN (`+placeholders+`)`, args...)
	return err
}

// PurgeExpired deletes entries past retention. Returns the number removed.
func (c *CacheStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := c.d.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at <= ?`, c.now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
