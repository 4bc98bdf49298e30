// Package sources builds the external evidence sources consulted when a
// question cannot be answered from a document.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/sources/duckduckgo"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/sources/wikipedia"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Available returns the names of every source that can be enabled.
func Available() []string {
	return []string{wikipedia.Name, duckduckgo.Name}
}

// Build creates the enabled sources in the configured order.
// When store is non-nil, results are cached in it for ttl.
func Build(settings domain.SourceSettings, store driven.CacheStore, ttl time.Duration) ([]driven.EvidenceSource, error) {
	seen := make(map[string]bool, len(settings.Enabled))
	out := make([]driven.EvidenceSource, 0, len(settings.Enabled))

	for _, raw := range settings.Enabled {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var src driven.EvidenceSource
		switch name {
		case wikipedia.Name:
			src = wikipedia.New(wikipedia.Config{
				Timeout:       settings.Timeout,
				RatePerSecond: settings.RatePerSecond,
			})
		case duckduckgo.Name:
			src = duckduckgo.New(duckduckgo.Config{
				Timeout:       settings.Timeout,
				RatePerSecond: settings.RatePerSecond,
			})
		default:
			return nil, fmt.Errorf("%w: unknown evidence source %q (available: %s)",
				domain.ErrInvalidInput, raw, strings.Join(Available(), ", "))
		}

		if store != nil && ttl > 0 {
			src = NewCached(src, store, ttl)
		}
		out = append(out, src)
	}
	return out, nil
}

// Ensure Cached implements the interface.
var _ driven.EvidenceSource = (*Cached)(nil)

// Cached serves repeated searches from the durable cache store.
// Entries are keyed by source name and normalised query.
type Cached struct {
	inner driven.EvidenceSource
	store driven.CacheStore
	ttl   time.Duration
}

// NewCached wraps inner with a result cache in store.
func NewCached(inner driven.EvidenceSource, store driven.CacheStore, ttl time.Duration) *Cached {
	return &Cached{inner: inner, store: store, ttl: ttl}
}

// Name returns the wrapped source's name.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Search returns cached results when present, otherwise queries the wrapped
// source and stores non-empty results. Cache failures never fail a search.
func (c *Cached) Search(ctx context.Context, query string, limit int) ([]domain.Evidence, error) {
	key := domain.SearchCacheKey(c.inner.Name(), fmt.Sprintf("%d %s", limit, query))

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached []domain.Evidence
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			logger.Debug("source %s: cache hit for query %s", c.inner.Name(), logger.Redact(query))
			return cached, nil
		}
		logger.Warn("source %s: dropping corrupt cached results", c.inner.Name())
		_ = c.store.Delete(ctx, key)
	case !errors.Is(err, domain.ErrNotFound):
		logger.Warn("source %s: cache read failed: %v", c.inner.Name(), err)
	}

	results, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return results, nil
	}

	if encoded, err := json.Marshal(results); err == nil {
		if err := c.store.Put(ctx, key, encoded, c.ttl); err != nil {
			logger.Warn("source %s: cache write failed: %v", c.inner.Name(), err)
		}
	}
	return results, nil
}
