package driven

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise extracts the text and title of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is the text extracted from a raw document.
// Chunking happens later in the document service.
type NormaliseResult struct {
	// Title is the title found in the document, or derived from its URI.
	Title string

	// Text is the extracted plain text.
	Text string

	// Format names the normaliser that produced the text (e.g. "markdown").
	Format string
}
