package driving

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// QueryService answers questions from retrieved, verified evidence.
type QueryService interface {
	// Ask runs one question through retrieval, the relevance gate, generation
	// and verification. Not found and refusals are answers, not errors.
	Ask(ctx context.Context, q domain.Question) (*domain.VerifiedAnswer, error)
}
