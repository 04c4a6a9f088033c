// Package mcp provides a Model Context Protocol server adapter for corra.
// It exposes the same tool catalogue as the JSON-RPC server, so AI
// assistants can browse the knowledge sources and run the retrieval agent.
package mcp

import "errors"

// ErrMissingTools is returned when the tool dispatcher is not provided.
var ErrMissingTools = errors.New("mcp: tool dispatcher is required")
