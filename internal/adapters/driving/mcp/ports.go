package mcp

import (
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Document uploads and lists documents. Optional: without it the
	// ingest and list tools and the document resources report not found.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
