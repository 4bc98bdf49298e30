package http

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func testDocument() *domain.Document {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Document{
		ID:          "doc-1",
		Title:       "eiffel.txt",
		RawText:     "The Eiffel Tower was completed in 1889.",
		ContentHash: domain.ContentHash("The Eiffel Tower was completed in 1889."),
		Chunks:      []domain.Chunk{{ID: 0, Text: "The Eiffel Tower was completed in 1889.", Length: 39}},
		Stats:       domain.DocumentStats{OriginalLength: 39, TotalChunks: 1},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestDocuments_List(t *testing.T) {
	api := newTestAPI(t)
	api.docs.summaries = []domain.DocumentSummary{{ID: "doc-1"}, {ID: "doc-2"}}

	code, body := api.do(t, fiber.MethodGet, "/api/v1/documents", "")

	require.Equal(t, fiber.StatusOK, code)
	var resp struct {
		Documents []domain.DocumentSummary `json:"documents"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestDocuments_Upload(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		api := newTestAPI(t)
		api.docs.document = testDocument()

		code, body := api.do(t, fiber.MethodPost, "/api/v1/documents",
			`{"title":"eiffel.txt","text":"The Eiffel Tower was completed in 1889."}`)

		require.Equal(t, fiber.StatusCreated, code)
		assert.Equal(t, "eiffel.txt", api.docs.uploaded.Title)
		var resp documentResponse
		require.NoError(t, json.Unmarshal([]byte(body), &resp))
		assert.Equal(t, "doc-1", resp.ID)
		assert.Empty(t, resp.Warning)
		assert.Empty(t, resp.Chunks)
	})

	t.Run("stored but not indexed", func(t *testing.T) {
		api := newTestAPI(t)
		api.docs.document = testDocument()
		api.docs.err = fmt.Errorf("document doc-1 stored but not indexed: %w", domain.ErrEmbeddingUnavailable)

		code, body := api.do(t, fiber.MethodPost, "/api/v1/documents", `{"text":"x"}`)

		assert.Equal(t, fiber.StatusCreated, code)
		assert.Contains(t, body, "not indexed")
	})

	t.Run("empty text", func(t *testing.T) {
		api := newTestAPI(t)
		api.docs.err = domain.NewStageError(domain.StageChunk, "", 0, domain.ErrEmptyInput)

		code, _ := api.do(t, fiber.MethodPost, "/api/v1/documents", `{"text":"  "}`)

		assert.Equal(t, fiber.StatusBadRequest, code)
	})
}

func TestDocuments_Get(t *testing.T) {
	api := newTestAPI(t)
	api.docs.document = testDocument()

	code, body := api.do(t, fiber.MethodGet, "/api/v1/documents/doc-1", "")

	require.Equal(t, fiber.StatusOK, code)
	var resp documentResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Len(t, resp.Chunks, 1)
	assert.NotContains(t, body, "raw_text")
}

func TestDocuments_GetNotFound(t *testing.T) {
	api := newTestAPI(t)
	api.docs.err = fmt.Errorf("document missing: %w", domain.ErrNotFound)

	code, body := api.do(t, fiber.MethodGet, "/api/v1/documents/missing", "")

	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Contains(t, body, "not found")
}

func TestDocuments_Text(t *testing.T) {
	api := newTestAPI(t)
	api.docs.document = testDocument()

	code, body := api.do(t, fiber.MethodGet, "/api/v1/documents/doc-1/text", "")

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "The Eiffel Tower was completed in 1889.", body)
}

func TestDocuments_Replace(t *testing.T) {
	api := newTestAPI(t)
	api.docs.document = testDocument()

	code, _ := api.do(t, fiber.MethodPut, "/api/v1/documents/doc-1", `{"text":"new text"}`)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "doc-1", api.docs.replacedID)
	assert.Equal(t, "new text", api.docs.uploaded.Text)
}

func TestDocuments_Remove(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.do(t, fiber.MethodDelete, "/api/v1/documents/doc-1", "")

	assert.Equal(t, fiber.StatusNoContent, code)
	assert.Equal(t, "doc-1", api.docs.removedID)
}

func TestDocuments_Stats(t *testing.T) {
	api := newTestAPI(t)
	api.docs.stats = &domain.DocumentStats{OriginalLength: 39, TotalChunks: 1, AvgChunkSize: 39}

	code, body := api.do(t, fiber.MethodGet, "/api/v1/documents/doc-1/stats", "")

	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"total_chunks":1`)
}
