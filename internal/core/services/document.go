package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages uploaded documents: chunking, storage and index builds.
type DocumentService struct {
	docStore driven.DocumentStore
	pipeline driven.PostProcessorPipeline
	index    *IndexService
	now      func() time.Time
	newID    func() string
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	pipeline driven.PostProcessorPipeline,
	index *IndexService,
) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		pipeline: pipeline,
		index:    index,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Upload chunks and indexes new text and stores it under a fresh id.
// If the index build fails the document is still stored and returned with
// the error; the index is rebuilt on the next question.
func (s *DocumentService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	now := s.now()
	doc := &domain.Document{
		ID:        s.newID(),
		Title:     req.Title,
		URI:       req.URI,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.prepare(ctx, doc, req.Text); err != nil {
		return nil, err
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	logger.Info("document %s: stored %d chunks from %d chars", doc.ID, len(doc.Chunks), doc.Stats.OriginalLength)

	return s.build(ctx, doc)
}

// Replace swaps a document's text, invalidating and rebuilding its index.
func (s *DocumentService) Replace(ctx context.Context, documentID string, req driving.UploadRequest) (*domain.Document, error) {
	existing, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:        existing.ID,
		Title:     firstNonEmpty(req.Title, existing.Title),
		URI:       firstNonEmpty(req.URI, existing.URI),
		CreatedAt: existing.CreatedAt,
		UpdatedAt: s.now(),
	}
	if err := s.prepare(ctx, doc, req.Text); err != nil {
		return nil, err
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	s.index.Invalidate(documentID)
	if doc.ContentHash == existing.ContentHash {
		logger.Debug("document %s: text unchanged", doc.ID)
	}
	logger.Info("document %s: replaced with %d chunks", doc.ID, len(doc.Chunks))

	return s.build(ctx, doc)
}

// Get retrieves a document and its chunks.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// List returns summaries of all documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	return s.docStore.ListDocuments(ctx)
}

// Remove deletes a document and drops its in-process index.
func (s *DocumentService) Remove(ctx context.Context, documentID string) error {
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	s.index.Invalidate(documentID)
	return nil
}

// Stats returns the chunking statistics for a document.
func (s *DocumentService) Stats(ctx context.Context, documentID string) (*domain.DocumentStats, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	stats := doc.Stats
	return &stats, nil
}

// prepare truncates and chunks text into doc.
func (s *DocumentService) prepare(ctx context.Context, doc *domain.Document, text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.NewStageError(domain.StageChunk, doc.ID, 0, domain.ErrEmptyInput)
	}

	originalLength := len([]rune(text))
	if originalLength > domain.MaxTextLength {
		logger.Warn("document %s: text is %d chars, truncating to %d", doc.ID, originalLength, domain.MaxTextLength)
		text = string([]rune(text)[:domain.MaxTextLength])
	}
	doc.RawText = text
	doc.ContentHash = domain.ContentHash(text)

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return domain.NewStageError(domain.StageChunk, doc.ID, 0, err)
	}
	if len(chunks) == 0 {
		return domain.NewStageError(domain.StageChunk, doc.ID, 0,
			fmt.Errorf("%w: no chunk passed the quality filter", domain.ErrEmptyInput))
	}

	doc.Chunks = chunks
	doc.Stats = domain.ComputeStats(originalLength, chunks)
	return nil
}

func (s *DocumentService) build(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if _, err := s.index.Get(ctx, doc); err != nil {
		return doc, fmt.Errorf("document %s stored but not indexed: %w", doc.ID, err)
	}
	return doc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
