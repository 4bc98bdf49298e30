package driven

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// EvidenceSource is an external information source consulted when a
// question cannot be answered from a document. Results pass through the
// same relevance gate as document chunks.
type EvidenceSource interface {
	// Name identifies the source in configuration, cache keys and citations.
	Name() string

	// Search returns at most limit results for query.
	// Failures wrap domain.ErrSourceUnavailable or domain.ErrRateLimited.
	Search(ctx context.Context, query string, limit int) ([]domain.Evidence, error)
}
