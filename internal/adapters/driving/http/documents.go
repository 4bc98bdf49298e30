package http

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// DocumentHandler serves the document routes.
type DocumentHandler struct {
	documents driving.DocumentService
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(documents driving.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Register sets up document routes.
func (h *DocumentHandler) Register(router fiber.Router) {
	docs := router.Group("/documents")
	docs.Get("/", h.List)
	docs.Post("/", h.Upload)
	docs.Get("/:id", h.Get)
	docs.Put("/:id", h.Replace)
	docs.Delete("/:id", h.Remove)
	docs.Get("/:id/text", h.Text)
	docs.Get("/:id/stats", h.Stats)
}

// uploadBody is the request body for upload and replace.
type uploadBody struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
	Text  string `json:"text"`
}

// documentResponse is a document without its raw text.
type documentResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	URI         string               `json:"uri,omitempty"`
	ContentHash string               `json:"content_hash"`
	Stats       domain.DocumentStats `json:"stats"`
	Chunks      []domain.Chunk       `json:"chunks,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Warning     string               `json:"warning,omitempty"`
}

func toDocumentResponse(doc *domain.Document, withChunks bool) documentResponse {
	resp := documentResponse{
		ID:          doc.ID,
		Title:       doc.Title,
		URI:         doc.URI,
		ContentHash: doc.ContentHash,
		Stats:       doc.Stats,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if withChunks {
		resp.Chunks = doc.Chunks
	}
	return resp
}

// List returns summaries of all documents.
func (h *DocumentHandler) List(c fiber.Ctx) error {
	docs, err := h.documents.List(c.Context())
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}
	return c.JSON(fiber.Map{"documents": docs, "count": len(docs)})
}

// Upload chunks, indexes and stores a new document.
// A document stored without an index is created with a warning.
func (h *DocumentHandler) Upload(c fiber.Ctx) error {
	var body uploadBody
	if err := c.Bind().JSON(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	doc, err := h.documents.Upload(c.Context(), driving.UploadRequest(body))
	if doc == nil {
		return err
	}
	resp := toDocumentResponse(doc, false)
	if err != nil {
		resp.Warning = err.Error()
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get returns a document and its chunks.
func (h *DocumentHandler) Get(c fiber.Ctx) error {
	doc, err := h.documents.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toDocumentResponse(doc, true))
}

// Replace swaps a document's text.
func (h *DocumentHandler) Replace(c fiber.Ctx) error {
	var body uploadBody
	if err := c.Bind().JSON(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	doc, err := h.documents.Replace(c.Context(), c.Params("id"), driving.UploadRequest(body))
	if doc == nil {
		return err
	}
	resp := toDocumentResponse(doc, false)
	if err != nil {
		resp.Warning = err.Error()
	}
	return c.JSON(resp)
}

// Remove deletes a document.
func (h *DocumentHandler) Remove(c fiber.Ctx) error {
	if err := h.documents.Remove(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Text returns the raw document text.
func (h *DocumentHandler) Text(c fiber.Ctx) error {
	doc, err := h.documents.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(doc.RawText)
}

// Stats returns the chunking statistics of a document.
func (h *DocumentHandler) Stats(c fiber.Ctx) error {
	stats, err := h.documents.Stats(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
