package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text and source files.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/x-go",
		"text/x-python",
		"text/x-shellscript",
		"text/yaml",
		"text/toml",
		"text/javascript",
		"text/css",
		"text/html",
		"text/markdown",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the content unchanged. Content that is not valid
// UTF-8 is taken to be binary and rejected.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrUnsupportedType, raw.URI)
	}

	return &driven.NormaliseResult{
		Title:  raw.FallbackTitle(),
		Text:   string(raw.Content),
		Format: "text",
	}, nil
}
