package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// CacheStore returns a CacheStore interface backed by this store.
// Closing it closes the underlying database.
func (s *Store) CacheStore() driven.CacheStore {
	return &cacheStore{store: s}
}

// cacheStore implements driven.CacheStore on the cache_entries table.
// Expiry times are unix nanoseconds; zero means the entry never expires.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

func (c *cacheStore) nowNanos() int64 {
	return c.store.now().UnixNano()
}

// Put replaces the value for key in a single statement.
func (c *cacheStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	if value == nil {
		value = []byte{}
	}
	now := c.nowNanos()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now + ttl.Nanoseconds()
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, namespace, value, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			namespace = excluded.namespace,
			value = excluded.value,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, domain.Namespace(key), value, now, expiresAt)
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// Get returns the value for key unless it is absent or expired.
func (c *cacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT value FROM cache_entries
		WHERE key = ? AND (expires_at = 0 OR expires_at > ?)
	`, key, c.nowNanos())

	var value []byte
	if err := row.Scan(&value); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	return value, nil
}

// Delete removes key.
func (c *cacheStore) Delete(ctx context.Context, key string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// Purge removes every key with the given prefix.
func (c *cacheStore) Purge(ctx context.Context, prefix string) (int, error) {
	res, err := c.store.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("purging cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged entries: %w", err)
	}
	return int(n), nil
}

// Sweep removes expired entries.
func (c *cacheStore) Sweep(ctx context.Context) (int, error) {
	res, err := c.store.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?", c.nowNanos())
	if err != nil {
		return 0, fmt.Errorf("sweeping cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting swept entries: %w", err)
	}
	return int(n), nil
}

// Stats reports live entries per namespace and unswept expired entries.
func (c *cacheStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	stats := domain.StoreStats{Entries: make(map[string]int)}
	now := c.nowNanos()

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT namespace, COUNT(*) FROM cache_entries
		WHERE expires_at = 0 OR expires_at > ?
		GROUP BY namespace
	`, now)
	if err != nil {
		return stats, fmt.Errorf("querying cache stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ns string
		var n int
		if err := rows.Scan(&ns, &n); err != nil {
			return stats, fmt.Errorf("scanning cache stats: %w", err)
		}
		stats.Entries[ns] = n
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterating cache stats: %w", err)
	}

	row := c.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?", now)
	if err := row.Scan(&stats.Expired); err != nil {
		return stats, fmt.Errorf("counting expired entries: %w", err)
	}
	return stats, nil
}

// Close closes the underlying database.
func (c *cacheStore) Close() error {
	return c.store.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
