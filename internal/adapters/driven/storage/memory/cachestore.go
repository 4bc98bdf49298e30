package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// CacheStore is an in-memory implementation of driven.CacheStore.
// It is used for tests and for the memory:// storage DSN.
type CacheStore struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *CacheStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Put stores value under key for ttl.
func (s *CacheStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item := cacheItem{value: slices.Clone(value)}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = item
	return nil
}

// Get returns the value for key.
func (s *CacheStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	if !ok || item.expired(s.now()) {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(item.value), nil
}

// Delete removes key.
func (s *CacheStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Purge removes every key with the given prefix.
func (s *CacheStore) Purge(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// Sweep removes expired entries.
func (s *CacheStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, item := range s.items {
		if item.expired(now) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// Stats reports live entries per namespace and unswept expired entries.
func (s *CacheStore) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	stats := domain.StoreStats{Entries: make(map[string]int)}
	for key, item := range s.items {
		if item.expired(now) {
			stats.Expired++
			continue
		}
		stats.Entries[domain.Namespace(key)]++
	}
	return stats, nil
}

// Close is a no-op for the memory store.
func (s *CacheStore) Close() error {
	return nil
}
