package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// DefaultBatchSize is the number of chunks per embedding request when none is configured.
const DefaultBatchSize = 4

// EmbeddingGateway is the only path from the engine to the embedding service.
// It batches requests, checks every response for count and length, retries
// transient failures once and never turns a failure into an empty result.
type EmbeddingGateway struct {
	svc       driven.EmbeddingService
	batchSize int
	limiter   *rate.Limiter
	policy    RetryPolicy
}

// GatewayOption configures an EmbeddingGateway.
type GatewayOption func(*EmbeddingGateway)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) GatewayOption {
	return func(g *EmbeddingGateway) {
		g.policy = p
	}
}

// NewEmbeddingGateway wraps svc using the batch size and rate from settings.
// svc may be nil, in which case every call fails with domain.ErrEmbeddingUnavailable.
func NewEmbeddingGateway(svc driven.EmbeddingService, settings domain.EmbeddingSettings, opts ...GatewayOption) *EmbeddingGateway {
	g := &EmbeddingGateway{
		svc:       svc,
		batchSize: settings.BatchSize,
		policy:    DefaultRetryPolicy(),
	}
	if g.batchSize <= 0 {
		g.batchSize = DefaultBatchSize
	}
	if settings.RatePerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(settings.RatePerSecond), g.batchSize)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Available reports whether an embedding service is configured.
func (g *EmbeddingGateway) Available() bool {
	return g != nil && g.svc != nil
}

// Model returns the embedding model name, or empty when unavailable.
func (g *EmbeddingGateway) Model() string {
	if !g.Available() {
		return ""
	}
	return g.svc.ModelName()
}

// Embed returns one vector per chunk, in chunk order.
func (g *EmbeddingGateway) Embed(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddingVector, error) {
	if !g.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	out := make([]domain.EmbeddingVector, 0, len(chunks))
	dims := g.svc.Dimensions()

	for start := 0; start < len(chunks); start += g.batchSize {
		end := min(start+g.batchSize, len(chunks))
		batch := chunks[start:end]

		vectors, err := g.embedTexts(ctx, domain.ChunkTexts(batch))
		if err != nil {
			return nil, err
		}
		for i, values := range vectors {
			if dims == 0 {
				dims = len(values)
			}
			if len(values) != dims {
				return nil, fmt.Errorf("%w: %w: chunk %d has %d values, expected %d",
					domain.ErrEmbeddingService, domain.ErrDimensionMismatch, batch[i].ID, len(values), dims)
			}
			out = append(out, domain.EmbeddingVector{ChunkID: batch[i].ID, Values: values})
		}
		logger.Debug("embedded batch %d-%d of %d chunks", start, end, len(chunks))
	}

	return out, nil
}

// EmbedQuery returns the embedding of a query string.
func (g *EmbeddingGateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if !g.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	vectors, err := g.embedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if dims := g.svc.Dimensions(); dims > 0 && len(vectors[0]) != dims {
		return nil, fmt.Errorf("%w: %w: query has %d values, expected %d",
			domain.ErrEmbeddingService, domain.ErrDimensionMismatch, len(vectors[0]), dims)
	}
	return vectors[0], nil
}

// embedTexts makes one rate-limited, retried batch call and checks the response shape.
func (g *EmbeddingGateway) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := retry(ctx, g.policy, func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		got, err := g.svc.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Debug("embedding batch of %d failed: %v", len(texts), err)
			return err
		}
		if len(got) != len(texts) {
			return fmt.Errorf("%w: %d vectors returned for %d texts", domain.ErrEmbeddingService, len(got), len(texts))
		}
		for i, v := range got {
			if len(v) == 0 {
				return fmt.Errorf("%w: empty vector for input %d", domain.ErrEmbeddingService, i)
			}
		}
		vectors = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
