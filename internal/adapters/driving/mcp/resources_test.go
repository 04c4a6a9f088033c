package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corra/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "corra://documents/notion:page-1",
			expected: "notion:page-1",
		},
		{
			name:     "document ID with slashes",
			uri:      "corra://documents/github:acme/api/README.md",
			expected: "github:acme/api/README.md",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil agent returns empty list", func(t *testing.T) {
		ports := &Ports{Tools: &mockTools{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		agent := &mockAgent{
			documents: []domain.Document{
				{
					ID:     "notion:page-1",
					Source: domain.SourceNotion,
					Title:  "Auth Overview",
					Origin: "https://notion.so/page-1",
				},
				{
					ID:     "github:acme/api/README.md",
					Source: domain.SourceGitHub,
					Title:  "README.md",
				},
			},
		}

		ports := &Ports{Tools: &mockTools{}, Agent: agent}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "notion:page-1")
		assert.Contains(t, result.Contents[0].Text, "Auth Overview")
		assert.Contains(t, result.Contents[0].Text, "https://notion.so/page-1")
		assert.Contains(t, result.Contents[0].Text, "github:acme/api/README.md")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		agent := &mockAgent{err: errors.New("index error")}

		ports := &Ports{Tools: &mockTools{}, Agent: agent}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents")
		_, err = server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})

	t.Run("handles empty document list", func(t *testing.T) {
		agent := &mockAgent{documents: []domain.Document{}}

		ports := &Ports{Tools: &mockTools{}, Agent: agent}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil agent returns not found", func(t *testing.T) {
		ports := &Ports{Tools: &mockTools{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents/notion:page-1")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		ports := &Ports{Tools: &mockTools{}, Agent: &mockAgent{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://invalid/uri")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns content successfully", func(t *testing.T) {
		agent := &mockAgent{
			document: &domain.Document{
				ID:      "notion:page-1",
				Source:  domain.SourceNotion,
				Title:   "Auth Overview",
				Content: "# Auth\n\nUse token auth everywhere.",
			},
		}

		ports := &Ports{Tools: &mockTools{}, Agent: agent}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents/notion:page-1")
		result, err := server.handleDocumentContentResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "# Auth\n\nUse token auth everywhere.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("unknown document returns not found", func(t *testing.T) {
		agent := &mockAgent{err: &domain.NotFoundError{Reference: "notion:page-9"}}

		ports := &Ports{Tools: &mockTools{}, Agent: agent}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents/notion:page-9")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
		assert.NotContains(t, err.Error(), "getting document content")
	})

	t.Run("returns error on lookup failure", func(t *testing.T) {
		agent := &mockAgent{err: errors.New("store offline")}

		ports := &Ports{Tools: &mockTools{}, Agent: agent}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("corra://documents/notion:page-1")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document content")
	})
}
