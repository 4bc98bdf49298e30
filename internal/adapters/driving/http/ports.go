// Package http serves the context engine as a JSON REST API under /api/v1.
package http

import (
	"errors"

	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("required service not provided")

// Ports holds the driving ports the API exposes.
type Ports struct {
	Document driving.DocumentService
	Query    driving.QueryService
	// Cache is optional; the cache routes answer 501 without it.
	Cache driving.CacheService
}

// Validate ensures the required ports are provided.
func (p *Ports) Validate() error {
	if p == nil || p.Document == nil || p.Query == nil {
		return ErrMissingService
	}
	return nil
}
