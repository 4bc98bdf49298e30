// Package lru provides the in-process index cache: a fixed-capacity,
// least-recently-used map of built vector indexes keyed by document id.
package lru

import (
	"slices"
	"sync/atomic"

	golru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// DefaultCapacity is the number of indexes kept when none is configured.
const DefaultCapacity = 10

// Ensure Cache implements the interface.
var _ driven.IndexCache = (*Cache)(nil)

// Cache is a thread-safe LRU of vector indexes with hit and eviction counters.
type Cache struct {
	capacity int
	entries  *golru.Cache[string, *domain.VectorIndex]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache holding at most capacity indexes.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// New only fails for a non-positive size.
	entries, _ := golru.New[string, *domain.VectorIndex](capacity)
	return &Cache{capacity: capacity, entries: entries}
}

// Get returns the index for documentID and marks it most recently used.
func (c *Cache) Get(documentID string) (*domain.VectorIndex, bool) {
	idx, ok := c.entries.Get(documentID)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return idx, true
}

// Put stores idx as the most recently used entry.
// When full, the least recently used entry is evicted first; entries never
// accessed since insertion are evicted in insertion order.
func (c *Cache) Put(documentID string, idx *domain.VectorIndex) {
	if c.entries.Add(documentID, idx) {
		c.evictions.Add(1)
	}
}

// Remove drops documentID and reports whether it was present.
func (c *Cache) Remove(documentID string) bool {
	return c.entries.Remove(documentID)
}

// Len returns the number of cached indexes.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Keys returns document ids from most to least recently used.
func (c *Cache) Keys() []string {
	keys := c.entries.Keys()
	slices.Reverse(keys)
	return keys
}

// Stats reports capacity, size and counters.
func (c *Cache) Stats() domain.LRUStats {
	return domain.LRUStats{
		Capacity:  c.capacity,
		Len:       c.entries.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
