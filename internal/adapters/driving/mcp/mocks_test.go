package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer *domain.VerifiedAnswer
	err    error
	asked  domain.Question
}

func (m *mockQueryService) Ask(_ context.Context, q domain.Question) (*domain.VerifiedAnswer, error) {
	m.asked = q
	return m.answer, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	summaries []domain.DocumentSummary
	document  *domain.Document
	stats     *domain.DocumentStats
	err       error
	uploaded  driving.UploadRequest
}

func (m *mockDocumentService) Upload(_ context.Context, req driving.UploadRequest) (*domain.Document, error) {
	m.uploaded = req
	return m.document, m.err
}

func (m *mockDocumentService) Replace(_ context.Context, _ string, _ driving.UploadRequest) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.summaries, m.err
}

func (m *mockDocumentService) Remove(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context, _ string) (*domain.DocumentStats, error) {
	return m.stats, m.err
}
