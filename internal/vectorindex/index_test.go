package vectorindex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: i, Text: string(rune('a' + i))}
	}
	return chunks
}

func vectors(values ...[]float32) []domain.EmbeddingVector {
	out := make([]domain.EmbeddingVector, len(values))
	for i, v := range values {
		out[i] = domain.EmbeddingVector{ChunkID: i, Values: v}
	}
	return out
}

func chunkIDs(results []domain.ScoredChunk) []int {
	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.Chunk.ID
	}
	return ids
}

func TestBuild(t *testing.T) {
	idx, err := Build("doc-1", "test-model", testChunks(2), vectors(
		[]float32{3, 4},
		[]float32{0, 2},
	))
	require.NoError(t, err)

	assert.Equal(t, "doc-1", idx.DocumentID)
	assert.Equal(t, "test-model", idx.Model)
	assert.Equal(t, 2, idx.Dimensions)
	assert.Equal(t, 2, idx.Len())
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, idx.Vectors[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1}, idx.Vectors[1], 1e-6)
	assert.False(t, idx.CreatedAt.IsZero())
}

func TestBuild_MatchesVectorsByChunkID(t *testing.T) {
	chunks := []domain.Chunk{{ID: 5}, {ID: 9}}
	vecs := []domain.EmbeddingVector{
		{ChunkID: 9, Values: []float32{0, 1}},
		{ChunkID: 5, Values: []float32{1, 0}},
	}

	idx, err := Build("doc", "m", chunks, vecs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 0}, idx.Vectors[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1}, idx.Vectors[1], 1e-6)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build("doc", "m", testChunks(2), vectors([]float32{1, 0}))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = Build("doc", "m", testChunks(2), vectors([]float32{1, 0}, []float32{1, 0, 0}))
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	_, err = Build("doc", "m", testChunks(1), []domain.EmbeddingVector{{ChunkID: 7, Values: []float32{1}}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestBuild_Empty(t *testing.T) {
	idx, err := Build("doc", "m", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, idx.Len())

	results, err := Search(idx, []float32{1}, domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 3})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNormalize_Zero(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, Normalize([]float32{0, 0}))
}

func TestSearch_Similarity(t *testing.T) {
	idx, err := Build("doc", "m", testChunks(3), vectors(
		[]float32{1, 0},
		[]float32{0, 1},
		[]float32{0.9, 0.1},
	))
	require.NoError(t, err)

	results, err := Search(idx, []float32{1, 0}, domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, chunkIDs(results))
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_SimilarityTiesByID(t *testing.T) {
	idx, err := Build("doc", "m", testChunks(3), vectors(
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{1, 0},
	))
	require.NoError(t, err)

	results, err := Search(idx, []float32{1, 0}, domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, chunkIDs(results))
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	idx, err := Build("doc", "m", testChunks(2), vectors([]float32{1, 0}, []float32{0, 1}))
	require.NoError(t, err)

	results, err := Search(idx, []float32{1, 1}, domain.SearchParams{Mode: domain.SearchModeMMR, K: 10, FetchK: 20, Lambda: 0.5})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_MMRPrefersDiversity(t *testing.T) {
	// Chunks 0 and 1 are near duplicates; chunk 2 is less relevant but different.
	idx, err := Build("doc", "m", testChunks(3), vectors(
		[]float32{1, 0, 0},
		[]float32{0.99, 0.01, 0},
		[]float32{0.7, 0, 0.7},
	))
	require.NoError(t, err)
	query := []float32{1, 0, 0.2}

	sim, err := Search(idx, query, domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, chunkIDs(sim))

	mmr, err := Search(idx, query, domain.SearchParams{Mode: domain.SearchModeMMR, K: 2, FetchK: 3, Lambda: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, chunkIDs(mmr))
}

func TestSearch_MMRLambdaOneIsSimilarity(t *testing.T) {
	idx, err := Build("doc", "m", testChunks(3), vectors(
		[]float32{1, 0, 0},
		[]float32{0.99, 0.01, 0},
		[]float32{0.7, 0, 0.7},
	))
	require.NoError(t, err)

	results, err := Search(idx, []float32{1, 0, 0.2}, domain.SearchParams{Mode: domain.SearchModeMMR, K: 2, FetchK: 3, Lambda: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, chunkIDs(results))
}

func TestSearch_MMRFetchKLimitsPool(t *testing.T) {
	idx, err := Build("doc", "m", testChunks(3), vectors(
		[]float32{1, 0, 0},
		[]float32{0.99, 0.01, 0},
		[]float32{0.7, 0, 0.7},
	))
	require.NoError(t, err)

	// With a pool of two, the diverse chunk is never considered.
	results, err := Search(idx, []float32{1, 0, 0.2}, domain.SearchParams{Mode: domain.SearchModeMMR, K: 2, FetchK: 2, Lambda: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, chunkIDs(results))
}

func TestSearch_Errors(t *testing.T) {
	idx, err := Build("doc", "m", testChunks(1), vectors([]float32{1, 0}))
	require.NoError(t, err)

	_, err = Search(idx, []float32{1, 0, 0}, domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 1})
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	_, err = Search(idx, []float32{1, 0}, domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 0})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = Search(idx, []float32{1, 0}, domain.SearchParams{Mode: "hybrid", K: 1})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = Search(nil, []float32{1, 0}, domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 1})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
