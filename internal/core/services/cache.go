package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure CacheService implements the interface.
var _ driving.CacheService = (*CacheService)(nil)

// CacheService exposes maintenance of both cache tiers.
type CacheService struct {
	lru   driven.IndexCache
	store driven.CacheStore
}

// NewCacheService creates a cache service. store may be nil.
func NewCacheService(lru driven.IndexCache, store driven.CacheStore) *CacheService {
	return &CacheService{lru: lru, store: store}
}

// Stats reports both tiers.
func (s *CacheService) Stats(ctx context.Context) (*domain.CacheStats, error) {
	stats := &domain.CacheStats{
		Memory:  s.lru.Stats(),
		Durable: domain.StoreStats{Entries: map[string]int{}},
	}
	if s.store == nil {
		return stats, nil
	}

	durable, err := s.store.Stats(ctx)
	if err != nil {
		return nil, domain.NewStageError(domain.StageCache, "", 0, err)
	}
	stats.Durable = durable
	return stats, nil
}

// Clear empties the in-process tier and purges durable entries in namespace.
// An empty namespace purges every durable entry.
func (s *CacheService) Clear(ctx context.Context, namespace string) (int, error) {
	prefix := ""
	switch namespace {
	case "":
	case domain.NamespaceVectors, domain.NamespaceSearch:
		prefix = namespace + ":"
	default:
		return 0, fmt.Errorf("%w: unknown cache namespace %q", domain.ErrInvalidInput, namespace)
	}

	if namespace != domain.NamespaceSearch {
		s.lru.Clear()
	}
	if s.store == nil {
		return 0, nil
	}

	n, err := s.store.Purge(ctx, prefix)
	if err != nil {
		return n, domain.NewStageError(domain.StageCache, "", 0, err)
	}
	logger.Info("cache: purged %d durable entries (namespace %q)", n, namespace)
	return n, nil
}

// Sweep removes expired durable entries.
func (s *CacheService) Sweep(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	n, err := s.store.Sweep(ctx)
	if err != nil {
		return n, domain.NewStageError(domain.StageCache, "", 0, err)
	}
	logger.Debug("cache: swept %d expired entries", n)
	return n, nil
}
