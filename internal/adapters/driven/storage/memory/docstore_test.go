package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func testDocument(id string, updated time.Time) *domain.Document {
	return &domain.Document{
		ID:          id,
		Title:       "Doc " + id,
		RawText:     "The Eiffel Tower is in Paris.",
		ContentHash: domain.ContentHash("The Eiffel Tower is in Paris."),
		Chunks: []domain.Chunk{
			{ID: 0, Text: "The Eiffel Tower is in Paris.", Length: 29},
		},
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", time.Now())))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Doc doc-1", got.Title)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, "The Eiffel Tower is in Paris.", got.Chunks[0].Text)
}

func TestDocumentStore_SaveReplacesChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDocument("doc-1", time.Now())
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Chunks = []domain.Chunk{{ID: 0, Text: "a"}, {ID: 1, Text: "b"}}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got.Chunks, 2)
}

func TestDocumentStore_ReturnsCopies(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDocument("doc-1", time.Now())
	require.NoError(t, store.SaveDocument(ctx, doc))
	doc.Chunks[0].Text = "mutated"

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	got.Chunks[0].Text = "mutated again"

	again, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "The Eiffel Tower is in Paris.", again.Chunks[0].Text)
}

func TestDocumentStore_SaveInvalid(t *testing.T) {
	store := NewDocumentStore()
	assert.ErrorIs(t, store.SaveDocument(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
}

func TestDocumentStore_GetNotFound(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Delete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", time.Now())))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))
	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteDocument(ctx, "doc-1"), domain.ErrNotFound)
}

func TestDocumentStore_ListNewestFirst(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, testDocument("old", base)))
	require.NoError(t, store.SaveDocument(ctx, testDocument("new", base.Add(time.Hour))))

	list, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, 1, list[0].Chunks)
}

func TestDocumentStore_Concurrent(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			_ = store.SaveDocument(ctx, testDocument(id, time.Now()))
			_, _ = store.GetDocument(ctx, id)
			_, _ = store.ListDocuments(ctx)
		}(i)
	}
	wg.Wait()

	list, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}
