package driving

import "context"

// Tools exposes the fixed tool catalogue to protocol servers.
// The catalogue is static: the same names, in the same order, every call.
type Tools interface {
	// ListTools returns the catalogue in stable order.
	ListTools() []ToolSpec

	// CallTool validates the arguments and invokes the named tool.
	// The returned value is JSON-marshallable. Unknown names and missing
	// or mistyped required arguments fail with domain.ValidationError
	// before any tool logic runs.
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// ToolSpec describes one callable tool.
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
