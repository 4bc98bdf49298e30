package vectorindex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func sampleIndex(t *testing.T) *domain.VectorIndex {
	t.Helper()
	chunks := []domain.Chunk{
		{ID: 0, Text: "The Eiffel Tower is in Paris.", Length: 29, Position: domain.PositionStart, WordCount: 6, HasPunctuation: true, Preview: "The Eiffel Tower is in Paris."},
		{ID: 1, Text: "It was completed in 1889.", Length: 25, Position: domain.PositionMiddle, WordCount: 5, Offset: 30, HasNumbers: true, HasPunctuation: true},
	}
	idx, err := Build("doc-1", "all-minilm", chunks, vectors(
		[]float32{0.1, -0.2, 0.3},
		[]float32{-1.5, 2.25, 0.125},
	))
	require.NoError(t, err)
	return idx
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	idx := sampleIndex(t)

	data, err := Marshal(idx)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, idx.DocumentID, got.DocumentID)
	assert.Equal(t, idx.Model, got.Model)
	assert.Equal(t, idx.Dimensions, got.Dimensions)
	assert.Equal(t, idx.Chunks, got.Chunks)
	require.Len(t, got.Vectors, len(idx.Vectors))
	for i := range idx.Vectors {
		assert.InDeltaSlice(t, idx.Vectors[i], got.Vectors[i], 1e-7)
	}
	assert.True(t, idx.CreatedAt.Equal(got.CreatedAt))
}

func TestMarshalUnmarshal_SearchEquivalent(t *testing.T) {
	idx := sampleIndex(t)
	data, err := Marshal(idx)
	require.NoError(t, err)
	restored, err := Unmarshal(data)
	require.NoError(t, err)

	params := domain.SearchParams{Mode: domain.SearchModeSimilarity, K: 2}
	a, err := Search(idx, []float32{0, 1, 0}, params)
	require.NoError(t, err)
	b, err := Search(restored, []float32{0, 1, 0}, params)
	require.NoError(t, err)

	assert.Equal(t, chunkIDs(a), chunkIDs(b))
}

func TestMarshalUnmarshal_EmptyIndex(t *testing.T) {
	idx, err := Build("doc-empty", "m", nil, nil)
	require.NoError(t, err)

	data, err := Marshal(idx)
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestUnmarshal_Corruption(t *testing.T) {
	data, err := Marshal(sampleIndex(t))
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)/2] ^= 0xFF

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 'X'

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("SCVI")},
		{"flipped byte", flipped},
		{"bad magic", badMagic},
		{"truncated", data[:len(data)-7]},
		{"garbage", []byte("this is definitely not an index blob")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			assert.True(t, errors.Is(err, domain.ErrCacheCorruption), "got %v", err)
		})
	}
}

func TestMarshal_Errors(t *testing.T) {
	_, err := Marshal(nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	idx := sampleIndex(t)
	idx.Vectors[1] = []float32{1}
	_, err = Marshal(idx)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}
