package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

var testTime = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func testDocument() *domain.Document {
	text := "The Eiffel Tower was completed in 1889 for the World's Fair."
	return &domain.Document{
		ID:          "doc-1",
		Title:       "eiffel.txt",
		RawText:     text,
		ContentHash: domain.ContentHash(text),
		Chunks: []domain.Chunk{{
			ID: 0, Text: text, Length: len(text), Position: domain.PositionStart, Preview: text,
		}},
		Stats:     domain.ComputeStats(len(text), []domain.Chunk{{Length: len(text)}}),
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

type mockDocumentService struct {
	document   *domain.Document
	summaries  []domain.DocumentSummary
	err        error
	uploaded   []driving.UploadRequest
	replacedID string
	removedID  string
}

func (m *mockDocumentService) Upload(_ context.Context, req driving.UploadRequest) (*domain.Document, error) {
	m.uploaded = append(m.uploaded, req)
	return m.document, m.err
}

func (m *mockDocumentService) Replace(_ context.Context, id string, req driving.UploadRequest) (*domain.Document, error) {
	m.replacedID = id
	m.uploaded = append(m.uploaded, req)
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
	if m.err != nil {
		return nil, m.err
	}
	stats := m.document.Stats
	return &stats, nil
}

type mockQueryService struct {
	answer *domain.VerifiedAnswer
	err    error
	asked  domain.Question
}

func (m *mockQueryService) Ask(_ context.Context, q domain.Question) (*domain.VerifiedAnswer, error) {
	m.asked = q
	return m.answer, m.err
}

type mockCacheService struct {
	stats     *domain.CacheStats
	n         int
	namespace string
	err       error
}

func (m *mockCacheService) Stats(_ context.Context) (*domain.CacheStats, error) {
	return m.stats, m.err
}

func (m *mockCacheService) Clear(_ context.Context, namespace string) (int, error) {
	m.namespace = namespace
	return m.n, m.err
}

func (m *mockCacheService) Sweep(_ context.Context) (int, error) {
	return m.n, m.err
}

type mockSettingsService struct {
	settings     domain.AppSettings
	set          map[string]string
	err          error
	validateErr  error
	embedding    domain.AIProvider
	llm          domain.AIProvider
	model        string
	apiKey       string
	pingEmbedErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"search.k", "search.mode"}
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding, m.model, m.apiKey = p, model, apiKey
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm, m.model, m.apiKey = p, model, apiKey
	return m.err
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingEmbedErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	documents *mockDocumentService
	query     *mockQueryService
	cache     *mockCacheService
	settings  *mockSettingsService
}

// setupTestServices installs mocks and returns a cleanup that restores the
// previous services.
func setupTestServices() (*testServices, func()) {
	restore := resetServices()

	ts := &testServices{
		documents: &mockDocumentService{
			document:  testDocument(),
			summaries: []domain.DocumentSummary{{ID: "doc-1", Title: "eiffel.txt", Chunks: 1, Length: 60, UpdatedAt: testTime}},
		},
		query:    &mockQueryService{},
		cache:    &mockCacheService{},
		settings: newMockSettingsService(),
	}
	SetServices(&Services{
		Document: ts.documents,
		Query:    ts.query,
		Cache:    ts.cache,
		Settings: ts.settings,
	})
	return ts, restore
}

// resetServices clears every service and returns a func restoring them.
func resetServices() func() {
	oldDocs, oldQuery, oldCache, oldSettings := documentService, queryService, cacheService, settingsService
	oldReady := servicesReady

	documentService, queryService, cacheService, settingsService = nil, nil, nil, nil
	servicesReady = false

	return func() {
		documentService, queryService, cacheService, settingsService = oldDocs, oldQuery, oldCache, oldSettings
		servicesReady = oldReady
	}
}
