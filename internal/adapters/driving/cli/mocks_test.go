package cli

import (
	"context"

	"github.com/custodia-labs/corra/internal/core/ports/driving"
)

// mockTools is a mock implementation of driving.Tools.
type mockTools struct {
	specs    []driving.ToolSpec
	result   any
	err      error
	lastName string
	lastArgs map[string]any
}

func (m *mockTools) ListTools() []driving.ToolSpec {
	return m.specs
}

func (m *mockTools) CallTool(_ context.Context, name string, args map[string]any) (any, error) {
	m.lastName = name
	m.lastArgs = args
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// swapToolService installs a mock dispatcher for one test.
func swapToolService(tools driving.Tools) func() {
	original := toolService
	toolService = tools
	return func() { toolService = original }
}
