package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func newTestServer(t *testing.T, query *mockQueryService, docs *mockDocumentService) *Server {
	t.Helper()
	ports := &Ports{Query: query}
	if docs != nil {
		ports.Document = docs
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grounded answer with evidence", func(t *testing.T) {
		query := &mockQueryService{answer: &domain.VerifiedAnswer{
			Text:     "It was completed in 1889.",
			Grounded: true,
			Evidence: []domain.Chunk{{ID: 1, Text: "It was completed in 1889."}},
			Source:   "document",
			State:    domain.StateReturned,
			Verdict:  domain.VerdictAccurate,
		}}
		server := newTestServer(t, query, nil)

		_, output, err := server.handleAsk(ctx, nil, AskInput{
			Question:   "When was the Eiffel Tower completed?",
			DocumentID: "doc-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "doc-1", query.asked.DocumentID)
		assert.True(t, output.Grounded)
		assert.Equal(t, "RETURNED", output.State)
		assert.Equal(t, "ACCURATE", output.Verdict)
		require.Len(t, output.Evidence, 1)
		assert.Equal(t, 1, output.Evidence[0].ChunkID)
	})

	t.Run("passes citations through", func(t *testing.T) {
		query := &mockQueryService{answer: &domain.VerifiedAnswer{
			Text:      "Completed in 1889.",
			Grounded:  true,
			Source:    "wikipedia",
			State:     domain.StateReturned,
			Citations: []domain.Evidence{{Source: "wikipedia", Title: "Eiffel Tower", URL: "https://example.org/eiffel"}},
		}}
		server := newTestServer(t, query, nil)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q", AllowExternal: true})

		require.NoError(t, err)
		assert.True(t, query.asked.AllowExternal)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, "https://example.org/eiffel", output.Citations[0].URL)
	})

	t.Run("not found is an answer", func(t *testing.T) {
		query := &mockQueryService{answer: &domain.VerifiedAnswer{
			Text:  domain.NotFoundMessage,
			State: domain.StateNotFound,
		}}
		server := newTestServer(t, query, nil)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.False(t, output.Grounded)
		assert.Equal(t, domain.NotFoundMessage, output.Answer)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newTestServer(t, &mockQueryService{err: errors.New("llm down")}, nil)

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm down")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()
	doc := &domain.Document{
		ID:     "doc-1",
		Chunks: []domain.Chunk{{ID: 0}, {ID: 1}},
		Stats:  domain.DocumentStats{TotalChunks: 2},
	}

	t.Run("uploads text", func(t *testing.T) {
		docs := &mockDocumentService{document: doc}
		server := newTestServer(t, &mockQueryService{}, docs)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Title: "t", Text: "body"})

		require.NoError(t, err)
		assert.Equal(t, "body", docs.uploaded.Text)
		assert.Equal(t, "doc-1", output.DocumentID)
		assert.Equal(t, 2, output.Chunks)
		assert.Empty(t, output.Warning)
	})

	t.Run("stored but not indexed is a warning", func(t *testing.T) {
		docs := &mockDocumentService{document: doc, err: fmt.Errorf("not indexed: %w", domain.ErrEmbeddingService)}
		server := newTestServer(t, &mockQueryService{}, docs)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Text: "body"})

		require.NoError(t, err)
		assert.Equal(t, "doc-1", output.DocumentID)
		assert.Contains(t, output.Warning, "not indexed")
	})

	t.Run("rejected text is an error", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrEmptyInput}
		server := newTestServer(t, &mockQueryService{}, docs)

		_, _, err := server.handleIngest(ctx, nil, IngestInput{Text: " "})

		assert.ErrorIs(t, err, domain.ErrEmptyInput)
	})

	t.Run("no document service", func(t *testing.T) {
		server := newTestServer(t, &mockQueryService{}, nil)

		_, _, err := server.handleIngest(ctx, nil, IngestInput{Text: "body"})

		assert.Error(t, err)
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("lists summaries", func(t *testing.T) {
		docs := &mockDocumentService{summaries: []domain.DocumentSummary{{ID: "a"}, {ID: "b"}}}
		server := newTestServer(t, &mockQueryService{}, docs)

		_, output, err := server.handleListDocuments(ctx, nil, struct{}{})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		server := newTestServer(t, &mockQueryService{}, &mockDocumentService{})

		_, output, err := server.handleListDocuments(ctx, nil, struct{}{})

		require.NoError(t, err)
		assert.NotNil(t, output.Documents)
		assert.Zero(t, output.Count)
	})
}
