package postprocessors

import (
	"context"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/lexical"
)

const previewLength = 100

// MetadataProcessor numbers the final chunks and fills in their derived fields.
// It must run last.
type MetadataProcessor struct{}

// Name returns the processor name.
func (MetadataProcessor) Name() string {
	return "metadata"
}

// Process assigns sequential ids and positions and computes per-chunk metadata.
func (MetadataProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.ID = i
		c.Length = utf8.RuneCountInString(c.Text)
		c.Position = domain.PositionFor(i, len(chunks))
		c.WordCount = lexical.WordCount(c.Text)
		c.HasNumbers = lexical.HasDigit(c.Text)
		c.HasPunctuation = lexical.HasSentencePunctuation(c.Text)
		c.Preview = preview(c.Text)
		out[i] = c
	}
	return out, nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength])
}
