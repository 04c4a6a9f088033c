package mcp

import (
	"github.com/custodia-labs/corra/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Tools dispatches the fixed tool catalogue.
	Tools driving.Tools

	// Agent reports on the indexed documents, backing the resource reads.
	Agent driving.Agent
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Tools == nil {
		return ErrMissingTools
	}
	// Agent is optional; resources degrade to empty listings without it.
	return nil
}
