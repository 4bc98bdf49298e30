package driven

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document.
// It maintains a priority-ordered list of normalisers and dispatches on MIME type.
type NormaliserRegistry interface {
	// Normalise extracts text using the highest priority normaliser for raw.MIMEType.
	// Returns domain.ErrUnsupportedType if none matches.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
