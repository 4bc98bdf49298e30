// Package contextprefix provides a processor that prepends a short excerpt of
// the preceding chunk to short chunks so they can be understood on their own.
package contextprefix

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// DefaultThreshold is the length below which a chunk receives a prefix.
const DefaultThreshold = 100

// excerptLength is the longest excerpt taken from the previous chunk.
const excerptLength = 50

// overlapProbe is the length of the previous chunk's tail that, when found at
// the start of a chunk, shows the chunk already repeats its predecessor.
const overlapProbe = 30

// Processor prefixes short chunks with the tail of the chunk before them.
type Processor struct {
	threshold int
}

// Option configures the context prefix processor.
type Option func(*Processor)

// WithThreshold sets the length below which chunks are prefixed.
func WithThreshold(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.threshold = n
		}
	}
}

// New creates a context prefix processor.
func New(opts ...Option) *Processor {
	p := &Processor{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "context_prefix"
}

// Process prefixes every short chunk after the first. The excerpt is taken
// from the previous chunk's original text, never from its prefix.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)

	for i := 1; i < len(chunks); i++ {
		c := chunks[i]
		if c.Length >= p.threshold {
			continue
		}
		excerpt := Excerpt(chunks[i-1].Text, excerptLength)
		if excerpt == "" || repeatsTail(c.Text, chunks[i-1].Text, excerpt) {
			continue
		}
		c.Text = "[Context: ..." + excerpt + "] " + c.Text
		c.Length = utf8.RuneCountInString(c.Text)
		out[i] = c
	}
	return out, nil
}

// Excerpt returns at most n trailing characters of text, starting at a word.
// A text no longer than n is returned whole.
func Excerpt(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= n {
		return string(runes)
	}
	start := len(runes) - n
	for start < len(runes) && !unicode.IsSpace(runes[start-1]) {
		start++
	}
	return strings.TrimSpace(string(runes[start:]))
}

func repeatsTail(text, prev, excerpt string) bool {
	probe := Excerpt(prev, overlapProbe)
	if probe == "" {
		return false
	}
	head := []rune(text)
	if limit := utf8.RuneCountInString(excerpt) + 1; len(head) > limit {
		head = head[:limit]
	}
	return strings.Contains(string(head), probe)
}
