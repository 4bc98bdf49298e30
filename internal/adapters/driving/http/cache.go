package http

import (
	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// CacheHandler serves the cache maintenance routes.
type CacheHandler struct {
	cache driving.CacheService
}

// NewCacheHandler creates a cache handler. cache may be nil.
func NewCacheHandler(cache driving.CacheService) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Register sets up cache routes.
func (h *CacheHandler) Register(router fiber.Router) {
	cache := router.Group("/cache", h.requireCache)
	cache.Get("/stats", h.Stats)
	cache.Delete("/", h.Clear)
	cache.Post("/sweep", h.Sweep)
}

func (h *CacheHandler) requireCache(c fiber.Ctx) error {
	if h.cache == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "cache service not configured")
	}
	return c.Next()
}

// Stats reports both cache tiers.
func (h *CacheHandler) Stats(c fiber.Ctx) error {
	stats, err := h.cache.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Clear empties the in-process tier and purges ?namespace= (all when empty).
func (h *CacheHandler) Clear(c fiber.Ctx) error {
	n, err := h.cache.Clear(c.Context(), c.Query("namespace"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"purged": n})
}

// Sweep removes expired durable entries.
func (h *CacheHandler) Sweep(c fiber.Ctx) error {
	n, err := h.cache.Sweep(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"removed": n})
}
