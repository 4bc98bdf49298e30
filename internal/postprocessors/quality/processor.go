// Package quality provides a processor that drops chunks too short or too
// noisy to be useful evidence.
package quality

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/lexical"
)

// Defaults for the quality thresholds.
const (
	DefaultMinLength     = 30
	DefaultMinAlphaRatio = 0.3
	DefaultMinTokens     = 3
)

// Processor rejects chunks below a length, letter-ratio or token-count floor.
type Processor struct {
	minLength     int
	minAlphaRatio float64
	minTokens     int
}

// Option configures the quality processor.
type Option func(*Processor)

// WithMinLength sets the minimum chunk length in characters.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// WithMinAlphaRatio sets the minimum share of letters.
func WithMinAlphaRatio(r float64) Option {
	return func(p *Processor) {
		if r >= 0 && r <= 1 {
			p.minAlphaRatio = r
		}
	}
}

// WithMinTokens sets the minimum number of meaningful tokens.
func WithMinTokens(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minTokens = n
		}
	}
}

// New creates a quality processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		minLength:     DefaultMinLength,
		minAlphaRatio: DefaultMinAlphaRatio,
		minTokens:     DefaultMinTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "quality"
}

// Process returns the chunks that pass every threshold, in order.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	kept := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if p.Accept(c.Text) {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// Accept reports whether text passes the quality thresholds.
func (p *Processor) Accept(text string) bool {
	if len([]rune(text)) < p.minLength {
		return false
	}
	if lexical.AlphaRatio(text) < p.minAlphaRatio {
		return false
	}
	return len(lexical.MeaningfulTokens(text)) >= p.minTokens
}
