package driven

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// DocumentStore persists documents together with their chunks.
// Saving a document replaces its chunks atomically.
type DocumentStore interface {
	// SaveDocument stores or replaces a document and its chunks.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document and its chunks by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	// Returns domain.ErrNotFound if absent.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns a summary of every document, most recently updated first.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)
}
