// Package ranker provides a processor that keeps only the highest quality
// chunks when a document produces more than the configured maximum.
package ranker

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/lexical"
	"github.com/custodia-labs/sercha-context/internal/postprocessors/chunker"
)

// DefaultMaxChunks is the default cap on chunks per document.
const DefaultMaxChunks = 15

// Quality score weights and bounds.
const (
	weightLength       = 0.35
	weightDiversity    = 0.25
	weightCompleteness = 0.2
	weightPosition     = 0.2

	idealMinLength = 200
	idealMaxLength = 600

	// leadShare is the leading share of the document whose chunks get the full position score.
	leadShare = 0.7
)

// Processor ranks chunks by quality and keeps the top N in document order.
type Processor struct {
	maxChunks int
}

// Option configures the ranker processor.
type Option func(*Processor)

// WithMaxChunks sets the number of chunks kept. Zero keeps all chunks.
func WithMaxChunks(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.maxChunks = n
		}
	}
}

// New creates a ranker processor.
func New(opts ...Option) *Processor {
	p := &Processor{maxChunks: DefaultMaxChunks}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "ranker"
}

// Process returns chunks unchanged when within the cap, otherwise the top
// scoring chunks. Ties go to the earlier chunk.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if p.maxChunks == 0 || len(chunks) <= p.maxChunks {
		return chunks, nil
	}

	docLen := utf8.RuneCountInString(chunker.Clean(doc.RawText))

	type ranked struct {
		index int
		score float64
	}
	order := make([]ranked, len(chunks))
	for i, c := range chunks {
		order[i] = ranked{index: i, score: Score(c, docLen)}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return order[a].score > order[b].score
	})

	keep := order[:p.maxChunks]
	sort.Slice(keep, func(a, b int) bool {
		return keep[a].index < keep[b].index
	})

	out := make([]domain.Chunk, len(keep))
	for i, r := range keep {
		out[i] = chunks[r.index]
	}
	return out, nil
}

// Score rates a chunk's usefulness as evidence in [0,1].
func Score(c domain.Chunk, docLen int) float64 {
	var completeness float64
	if lexical.EndsSentence(c.Text) {
		completeness = 1
	}
	return weightLength*lengthScore(c.Length) +
		weightDiversity*lexical.UniqueRatio(c.Text) +
		weightCompleteness*completeness +
		weightPosition*positionScore(c.Offset, docLen)
}

func lengthScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n < idealMinLength:
		return float64(n) / idealMinLength
	case n > idealMaxLength:
		return idealMaxLength / float64(n)
	default:
		return 1
	}
}

func positionScore(offset, docLen int) float64 {
	if docLen <= 0 || float64(offset) < leadShare*float64(docLen) {
		return 1
	}
	return 0.5
}
