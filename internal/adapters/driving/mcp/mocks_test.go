package mcp

import (
	"context"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driving"
)

// mockTools is a mock implementation of driving.Tools.
type mockTools struct {
	specs    []driving.ToolSpec
	result   any
	err      error
	calls    []string
	lastArgs map[string]any
}

func (m *mockTools) ListTools() []driving.ToolSpec {
	return m.specs
}

func (m *mockTools) CallTool(_ context.Context, name string, args map[string]any) (any, error) {
	m.calls = append(m.calls, name)
	m.lastArgs = args
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockAgent is a mock implementation of driving.Agent.
type mockAgent struct {
	receipt      *driving.IngestReceipt
	batchReceipt *driving.BatchReceipt
	answer       *domain.Answer
	documents    []domain.Document
	document     *domain.Document
	err          error
}

func (m *mockAgent) Ingest(_ context.Context, _ domain.Source, _ string) (*driving.IngestReceipt, error) {
	return m.receipt, m.err
}

func (m *mockAgent) IngestBatch(_ context.Context, _ driving.BatchRequest) (*driving.BatchReceipt, error) {
	return m.batchReceipt, m.err
}

func (m *mockAgent) Answer(_ context.Context, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockAgent) Indexed(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockAgent) IndexedDocument(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}
