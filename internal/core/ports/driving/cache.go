package driving

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// CacheService exposes maintenance of both cache tiers.
type CacheService interface {
	// Stats reports both tiers.
	Stats(ctx context.Context) (*domain.CacheStats, error)

	// Clear empties the in-process tier and purges durable entries in a namespace.
	// An empty namespace purges every durable entry.
	Clear(ctx context.Context, namespace string) (int, error)

	// Sweep removes expired durable entries.
	Sweep(ctx context.Context) (int, error)
}
