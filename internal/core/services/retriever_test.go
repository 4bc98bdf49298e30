package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/vectorindex"
)

func newTestRetriever(t *testing.T, retrieval domain.RetrievalSettings) (*Retriever, *domain.VectorIndex) {
	t.Helper()
	embedder := newHashEmbedder()
	gateway := NewEmbeddingGateway(embedder, domain.EmbeddingSettings{})
	doc := chunkedDoc(t, "doc-1", eiffelText)

	vectors, err := gateway.Embed(context.Background(), doc.Chunks)
	require.NoError(t, err)
	idx, err := vectorindex.Build(doc.ID, gateway.Model(), doc.Chunks, vectors)
	require.NoError(t, err)

	return NewRetriever(gateway, domain.DefaultAppSettings().Search, retrieval), idx
}

func scored(texts ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(texts))
	for i, text := range texts {
		out[i] = domain.ScoredChunk{Chunk: domain.Chunk{ID: i, Text: text}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestRetriever_RetrievesCompletionChunk(t *testing.T) {
	r, idx := newTestRetriever(t, domain.DefaultAppSettings().Retrieval)

	res, err := r.Retrieve(context.Background(), idx, "When was the Eiffel Tower completed?")

	require.NoError(t, err)
	assert.Equal(t, SourceDocument, res.Source)
	assert.NotEmpty(t, res.Candidates)
	require.False(t, res.Empty())
	assert.Contains(t, res.Context, "1889")
	assert.False(t, res.Truncated)
}

func TestRetriever_ZeroOverlapGatesEverything(t *testing.T) {
	r, idx := newTestRetriever(t, domain.DefaultAppSettings().Retrieval)

	res, err := r.Retrieve(context.Background(), idx, "Who discovered penicillin?")

	require.NoError(t, err)
	assert.NotEmpty(t, res.Candidates, "vector search still ranks candidates")
	assert.True(t, res.Empty())
	assert.Empty(t, res.Context)
}

func TestRetriever_InvalidInput(t *testing.T) {
	r, idx := newTestRetriever(t, domain.DefaultAppSettings().Retrieval)

	_, err := r.Retrieve(context.Background(), nil, "q")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Retrieve(context.Background(), idx, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetriever_Gate(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		query     string
		want      []int
	}{
		{"partial overlap passes default", 0.2, "Eiffel Tower colour", []int{0, 1}},
		{"stricter threshold", 0.9, "Eiffel Tower completed", []int{1}},
		{"no overlap", 0.2, "penicillin discovery", nil},
		{"stopwords only", 0.2, "what is the", nil},
		{"zero threshold still needs keywords", 0, "is it", nil},
	}

	candidates := scored(
		"The Eiffel Tower is in Paris.",
		"The Eiffel Tower was completed in 1889.",
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetriever(nil, domain.SearchSettings{}, domain.RetrievalSettings{RelevanceThreshold: tt.threshold})

			accepted := r.Gate(tt.query, candidates)

			var ids []int
			for _, c := range accepted {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRetriever_GateKeepsRankOrder(t *testing.T) {
	r := NewRetriever(nil, domain.SearchSettings{}, domain.RetrievalSettings{RelevanceThreshold: 0.2})
	candidates := []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: 7, Text: "golang channels"}, Score: 0.9},
		{Chunk: domain.Chunk{ID: 2, Text: "golang goroutines"}, Score: 0.8},
	}

	accepted := r.Gate("golang", candidates)

	require.Len(t, accepted, 2)
	assert.Equal(t, 7, accepted[0].ID)
	assert.Equal(t, 2, accepted[1].ID)
}

func TestRetriever_RetrieveEvidence(t *testing.T) {
	r := NewRetriever(nil, domain.SearchSettings{}, domain.RetrievalSettings{RelevanceThreshold: 0.2})
	items := []domain.Evidence{
		{Source: "wikipedia", Title: "Louvre", URL: "https://w/Louvre", Summary: "An art museum in Paris."},
		{Source: "wikipedia", Title: "Eiffel Tower", URL: "https://w/Eiffel", Summary: "Completed in 1889 for the World's Fair."},
	}

	res := r.RetrieveEvidence("When was the Eiffel Tower completed?", "wikipedia", items)

	assert.Equal(t, "wikipedia", res.Source)
	assert.Len(t, res.Candidates, 2)
	require.Len(t, res.Accepted, 1)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "https://w/Eiffel", res.Citations[0].URL)
	assert.Equal(t, "Eiffel Tower: Completed in 1889 for the World's Fair.", res.Context)
}

func TestRetriever_RetrieveEvidence_Empty(t *testing.T) {
	r := NewRetriever(nil, domain.SearchSettings{}, domain.RetrievalSettings{RelevanceThreshold: 0.2})

	res := r.RetrieveEvidence("anything", "duckduckgo", nil)

	assert.True(t, res.Empty())
	assert.Empty(t, res.Citations)
}

func TestBuildContext(t *testing.T) {
	chunks := []domain.Chunk{{Text: "alpha beta"}, {Text: "gamma delta"}}

	ctx, truncated := BuildContext(chunks, 100)
	assert.Equal(t, "alpha beta\n\ngamma delta", ctx)
	assert.False(t, truncated)

	ctx, truncated = BuildContext(nil, 100)
	assert.Empty(t, ctx)
	assert.False(t, truncated)
}

func TestBuildContext_TruncatesAndMarks(t *testing.T) {
	long := strings.Repeat("x", 60)
	chunks := []domain.Chunk{{Text: long}, {Text: long}}

	ctx, truncated := BuildContext(chunks, 100)

	assert.True(t, truncated)
	assert.True(t, strings.HasSuffix(ctx, truncationMarker))
	assert.LessOrEqual(t, len([]rune(ctx)), 100)
	assert.True(t, strings.HasPrefix(ctx, long+contextSeparator))
}

func TestBuildContext_MarkerFitsAfterExactFill(t *testing.T) {
	chunks := []domain.Chunk{{Text: strings.Repeat("a", 100)}, {Text: strings.Repeat("b", 50)}}

	ctx, truncated := BuildContext(chunks, 100)

	assert.True(t, truncated)
	assert.Len(t, []rune(ctx), 100)
	assert.True(t, strings.HasSuffix(ctx, truncationMarker))
	assert.NotContains(t, ctx, "b")
}

func TestBuildContext_BudgetSmallerThanMarker(t *testing.T) {
	chunks := []domain.Chunk{{Text: strings.Repeat("a", 30)}}

	ctx, truncated := BuildContext(chunks, 10)

	assert.True(t, truncated)
	assert.Equal(t, strings.Repeat("a", 10), ctx)
}

func TestBuildContext_ExactFitNotTruncated(t *testing.T) {
	chunks := []domain.Chunk{{Text: "abcde"}}

	ctx, truncated := BuildContext(chunks, 5)

	assert.Equal(t, "abcde", ctx)
	assert.False(t, truncated)
}

func TestBuildContext_MultibyteSafe(t *testing.T) {
	chunks := []domain.Chunk{{Text: strings.Repeat("é", 50)}}

	ctx, truncated := BuildContext(chunks, 30)

	assert.True(t, truncated)
	assert.True(t, strings.HasPrefix(ctx, "éé"))
	assert.NotContains(t, ctx, "�")
}
