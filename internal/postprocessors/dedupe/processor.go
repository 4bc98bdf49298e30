// Package dedupe provides a processor that drops near-duplicate chunks.
package dedupe

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/lexical"
)

// Defaults for duplicate detection.
const (
	DefaultThreshold = 0.8
	DefaultWindow    = 3
)

// Processor rejects a chunk whose token set is too similar to one of the
// most recently accepted chunks.
type Processor struct {
	threshold float64
	window    int
}

// Option configures the dedupe processor.
type Option func(*Processor)

// WithThreshold sets the Jaccard similarity above which a chunk is a duplicate.
func WithThreshold(t float64) Option {
	return func(p *Processor) {
		if t > 0 && t <= 1 {
			p.threshold = t
		}
	}
}

// WithWindow sets how many accepted chunks are compared.
func WithWindow(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.window = n
		}
	}
}

// New creates a dedupe processor.
func New(opts ...Option) *Processor {
	p := &Processor{threshold: DefaultThreshold, window: DefaultWindow}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process returns chunks with near-duplicates removed. The first occurrence wins.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	kept := make([]domain.Chunk, 0, len(chunks))
	recent := make([]lexical.Set, 0, p.window)

	for _, c := range chunks {
		tokens := lexical.TokenSet(c.Text)
		if p.isDuplicate(tokens, recent) {
			continue
		}
		kept = append(kept, c)
		recent = append(recent, tokens)
		if len(recent) > p.window {
			recent = recent[1:]
		}
	}
	return kept, nil
}

func (p *Processor) isDuplicate(tokens lexical.Set, recent []lexical.Set) bool {
	for _, prev := range recent {
		if lexical.Jaccard(tokens, prev) > p.threshold {
			return true
		}
	}
	return false
}
