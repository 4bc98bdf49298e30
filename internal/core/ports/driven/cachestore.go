package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// CacheStore is the durable cache tier: keyed binary blobs with a TTL.
// Writes replace a whole value; readers never observe a partial write.
// Expiry is checked on read, so a background sweep is only needed to reclaim space.
// Implementations must be safe for use by several processes sharing one store.
type CacheStore interface {
	// Put stores value under key for ttl. A zero ttl never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key.
	// Returns domain.ErrNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Purge removes every key with the given prefix and returns how many were removed.
	// An empty prefix removes everything.
	Purge(ctx context.Context, prefix string) (int, error)

	// Sweep removes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Stats reports live entries per namespace and unswept expired entries.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// Close releases resources.
	Close() error
}

// IndexCache is the in-process cache tier: a fixed-capacity LRU of built
// indexes keyed by document id. Implementations must be safe for concurrent use.
type IndexCache interface {
	// Get returns the index for documentID and marks it most recently used.
	Get(documentID string) (*domain.VectorIndex, bool)

	// Put stores idx, evicting the least recently used entry when full.
	Put(documentID string, idx *domain.VectorIndex)

	// Remove drops documentID and reports whether it was present.
	Remove(documentID string) bool

	// Len returns the number of cached indexes.
	Len() int

	// Clear drops every entry.
	Clear()

	// Stats reports capacity, size and hit counters.
	Stats() domain.LRUStats
}
