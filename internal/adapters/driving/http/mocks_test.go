package http

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

type mockQueryService struct {
	answer *domain.VerifiedAnswer
	err    error
	asked  domain.Question
}

func (m *mockQueryService) Ask(_ context.Context, q domain.Question) (*domain.VerifiedAnswer, error) {
	m.asked = q
	return m.answer, m.err
}

type mockDocumentService struct {
	summaries  []domain.DocumentSummary
	document   *domain.Document
	stats      *domain.DocumentStats
	err        error
	uploaded   driving.UploadRequest
	replacedID string
	removedID  string
}

func (m *mockDocumentService) Upload(_ context.Context, req driving.UploadRequest) (*domain.Document, error) {
	m.uploaded = req
	return m.document, m.err
}

func (m *mockDocumentService) Replace(_ context.Context, id string, req driving.UploadRequest) (*domain.Document, error) {
	m.replacedID = id
	m.uploaded = req
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.summaries, m.err
}

func (m *mockDocumentService) Remove(_ context.Context, id string) error {
	m.removedID = id
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context, _ string) (*domain.DocumentStats, error) {
	return m.stats, m.err
}

type mockCacheService struct {
	stats     *domain.CacheStats
	purged    int
	namespace string
	err       error
}

func (m *mockCacheService) Stats(_ context.Context) (*domain.CacheStats, error) {
	return m.stats, m.err
}

func (m *mockCacheService) Clear(_ context.Context, namespace string) (int, error) {
	m.namespace = namespace
	return m.purged, m.err
}

func (m *mockCacheService) Sweep(_ context.Context) (int, error) {
	return m.purged, m.err
}
