package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// maxBodyBytes admits a document of MaxTextLength multi-byte characters plus JSON framing.
const maxBodyBytes = 4*domain.MaxTextLength + 64*1024

// Server is the REST API server.
type Server struct {
	ports *Ports
	app   *fiber.App
}

// NewServer creates the API and registers its routes.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports}
	s.app = fiber.New(fiber.Config{
		AppName:      "sercha-context",
		BodyLimit:    maxBodyBytes,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		ErrorHandler: errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestLogger())

	s.app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api := s.app.Group("/api/v1")
	NewDocumentHandler(ports.Document).Register(api)
	NewQueryHandler(ports.Query).Register(api)
	NewCacheHandler(ports.Cache).Register(api)

	return s, nil
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	logger.Info("http: serving on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}

// requestLogger logs each request at debug level.
func requestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		method := c.Method()
		path := c.Path()

		err := c.Next()

		if err != nil {
			logger.Debug("http: %s %s failed after %s: %v", method, path, time.Since(start).Round(time.Millisecond), err)
		} else {
			logger.Debug("http: %s %s %d in %s", method, path, c.Response().StatusCode(),
				time.Since(start).Round(time.Millisecond))
		}
		return err
	}
}

// errorHandler maps domain errors to status codes.
func errorHandler(c fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		logger.Warn("http: %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrBuildTimeout), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrSourceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
