package contextprefix

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func chunk(id int, text string) domain.Chunk {
	return domain.Chunk{ID: id, Text: text, Length: len([]rune(text))}
}

func TestProcess_PrefixesShortChunks(t *testing.T) {
	in := []domain.Chunk{
		chunk(0, "The Eiffel Tower is in Paris."),
		chunk(1, "It was completed in 1889."),
	}

	out, err := New().Process(context.Background(), nil, in)
	require.NoError(t, err)

	assert.Equal(t, "The Eiffel Tower is in Paris.", out[0].Text)
	assert.Equal(t, "[Context: ...The Eiffel Tower is in Paris.] It was completed in 1889.", out[1].Text)
	assert.Equal(t, len([]rune(out[1].Text)), out[1].Length)
	assert.Equal(t, "It was completed in 1889.", in[1].Text, "input is not mutated")
}

func TestProcess_LongChunksUnchanged(t *testing.T) {
	long := strings.Repeat("word ", 30)
	in := []domain.Chunk{chunk(0, "Previous chunk text here."), chunk(1, long)}

	out, err := New().Process(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, long, out[1].Text)
}

func TestProcess_SkipsWhenOverlapAlreadyPresent(t *testing.T) {
	prev := "Caching avoids recomputing expensive embeddings for identical text."
	in := []domain.Chunk{
		chunk(0, prev),
		chunk(1, "embeddings for identical text. Durable entries expire."),
	}

	out, err := New().Process(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, in[1].Text, out[1].Text)
}

func TestProcess_UsesOriginalPreviousText(t *testing.T) {
	in := []domain.Chunk{
		chunk(0, "First short chunk about tokens."),
		chunk(1, "Second short chunk about gates."),
		chunk(2, "Third short chunk about caches."),
	}

	out, err := New().Process(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, "[Context: ...Second short chunk about gates.] Third short chunk about caches.", out[2].Text)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", Excerpt("  short text ", 50))
	assert.Equal(t, "in Paris.", Excerpt("The Eiffel Tower is in Paris.", 10))
	assert.Equal(t, "", Excerpt("Supercalifragilistic", 5))
}
