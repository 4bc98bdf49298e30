package http

import (
	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// QueryHandler serves the ask route.
type QueryHandler struct {
	query driving.QueryService
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(query driving.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

// Register sets up query routes.
func (h *QueryHandler) Register(router fiber.Router) {
	router.Post("/ask", h.Ask)
}

// Ask answers a question. Not found and refusals are 200 responses whose
// state says so.
func (h *QueryHandler) Ask(c fiber.Ctx) error {
	var body struct {
		Question      string `json:"question"`
		DocumentID    string `json:"document_id"`
		AllowExternal bool   `json:"allow_external"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	answer, err := h.query.Ask(c.Context(), domain.Question{
		Text:          body.Question,
		DocumentID:    body.DocumentID,
		AllowExternal: body.AllowExternal,
	})
	if err != nil {
		return err
	}
	return c.JSON(answer)
}
