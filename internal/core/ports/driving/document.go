package driving

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// UploadRequest carries a new document's text.
type UploadRequest struct {
	// Title is a display name, usually the file name.
	Title string

	// URI is where the text came from, if anywhere.
	URI string

	// Text is the extracted document text.
	Text string
}

// DocumentService manages the document lifecycle.
// Uploading chunks the text and builds its index; queries then reuse the cached index.
type DocumentService interface {
	// Upload chunks and indexes new text and stores it under a fresh id.
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)

	// Replace swaps a document's text, invalidating and rebuilding its index.
	Replace(ctx context.Context, documentID string, req UploadRequest) (*domain.Document, error)

	// Get retrieves a document and its chunks.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns summaries of all documents.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Remove deletes a document and drops its in-process index.
	Remove(ctx context.Context, documentID string) error

	// Stats returns the chunking statistics for a document.
	Stats(ctx context.Context, documentID string) (*domain.DocumentStats, error)
}
