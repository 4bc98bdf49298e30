package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// CacheStore returns a CacheStore backed by this store.
// Closing it closes the connection pool.
func (s *Store) CacheStore() driven.CacheStore {
	return &cacheStore{store: s}
}

type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

func (c *cacheStore) nowNanos() int64 {
	return c.store.now().UnixNano()
}

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
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			namespace = EXCLUDED.namespace,
			value = EXCLUDED.value,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		key, domain.Namespace(key), value, now, expiresAt)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (c *cacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.store.db.QueryRowContext(ctx, `
		SELECT value FROM cache_entries
		WHERE key = $1 AND (expires_at = 0 OR expires_at > $2)`,
		key, c.nowNanos()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cache entry: %w", err)
	}
	return value, nil
}

func (c *cacheStore) Delete(ctx context.Context, key string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = $1", key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (c *cacheStore) Purge(ctx context.Context, prefix string) (int, error) {
	res, err := c.store.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE $1 ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("purge cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (c *cacheStore) Sweep(ctx context.Context) (int, error) {
	res, err := c.store.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= $1", c.nowNanos())
	if err != nil {
		return 0, fmt.Errorf("sweep cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (c *cacheStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	stats := domain.StoreStats{Entries: make(map[string]int)}
	now := c.nowNanos()

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT namespace, COUNT(*) FROM cache_entries
		WHERE expires_at = 0 OR expires_at > $1
		GROUP BY namespace`, now)
	if err != nil {
		return stats, fmt.Errorf("query cache stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ns string
		var n int
		if err := rows.Scan(&ns, &n); err != nil {
			return stats, fmt.Errorf("scan cache stats: %w", err)
		}
		stats.Entries[ns] = n
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate cache stats: %w", err)
	}

	err = c.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cache_entries WHERE expires_at != 0 AND expires_at <= $1", now).
		Scan(&stats.Expired)
	if err != nil {
		return stats, fmt.Errorf("count expired entries: %w", err)
	}
	return stats, nil
}

func (c *cacheStore) Close() error {
	return c.store.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
