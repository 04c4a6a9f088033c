package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDocument_Fields tests Document structure fields
func TestDocument_Fields(t *testing.T) {
	doc := Document{
		ID:      "notion:a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		Source:  SourceNotion,
		Title:   "Auth Flow",
		Content: "The service mints a JWT after the OAuth handshake.",
		Metadata: map[string]string{
			"page_id":     "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
			"last_edited": "2026-01-15T10:00:00Z",
		},
		Origin: "https://www.notion.so/a1b2c3d4e5f67890abcdef1234567890",
	}

	assert.Equal(t, "notion:a1b2c3d4-e5f6-7890-abcd-ef1234567890", doc.ID)
	assert.Equal(t, SourceNotion, doc.Source)
	assert.Equal(t, "Auth Flow", doc.Title)
	assert.Contains(t, doc.Content, "JWT")
	assert.Equal(t, "a1b2c3d4-e5f6-7890-abcd-ef1234567890", doc.Metadata["page_id"])
	assert.NotEmpty(t, doc.Origin)
}

// TestDocument_IDFormats tests the deterministic ID scheme per source
func TestDocument_IDFormats(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		id     string
	}{
		{"notion page", SourceNotion, "notion:a1b2c3d4-e5f6-7890-abcd-ef1234567890"},
		{"github file", SourceGitHub, "github:acme/api/README.md"},
		{"github nested path", SourceGitHub, "github:acme/api/docs/auth/jwt.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{ID: tt.id, Source: tt.source, Title: "Test"}
			assert.Equal(t, tt.id, doc.ID)
			assert.True(t, len(doc.ID) > len(tt.source.String()))
		})
	}
}

// TestDocument_NilMetadata tests Document with nil metadata
func TestDocument_NilMetadata(t *testing.T) {
	doc := Document{
		ID:     "github:acme/api/main.go",
		Source: SourceGitHub,
		Title:  "main.go",
	}

	assert.Nil(t, doc.Metadata)
}

// TestDocument_EmptyMetadata tests Document with empty metadata
func TestDocument_EmptyMetadata(t *testing.T) {
	doc := Document{
		ID:       "github:acme/api/main.go",
		Source:   SourceGitHub,
		Title:    "main.go",
		Metadata: map[string]string{},
	}

	assert.NotNil(t, doc.Metadata)
	assert.Empty(t, doc.Metadata)
}

// TestChunk_Fields tests Chunk structure fields
func TestChunk_Fields(t *testing.T) {
	chunk := Chunk{
		ID:         "chunk-123",
		DocumentID: "notion:a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		Content:    "This is the chunk content.",
		Position:   0,
		Embedding:  []float32{0.1, 0.2, 0.3},
	}

	assert.Equal(t, "chunk-123", chunk.ID)
	assert.Equal(t, "notion:a1b2c3d4-e5f6-7890-abcd-ef1234567890", chunk.DocumentID)
	assert.Equal(t, "This is the chunk content.", chunk.Content)
	assert.Equal(t, 0, chunk.Position)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, chunk.Embedding)
}

// TestChunk_Positions tests various chunk positions
func TestChunk_Positions(t *testing.T) {
	tests := []struct {
		name     string
		position int
	}{
		{"first chunk", 0},
		{"second chunk", 1},
		{"middle chunk", 50},
		{"large position", 9999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := Chunk{
				ID:         "chunk-123",
				DocumentID: "doc-456",
				Position:   tt.position,
			}
			assert.Equal(t, tt.position, chunk.Position)
		})
	}
}

// TestChunk_NoEmbedding tests chunk without embedding
func TestChunk_NoEmbedding(t *testing.T) {
	chunk := Chunk{
		ID:         "chunk-123",
		DocumentID: "doc-456",
		Content:    "Content without embedding",
		Position:   0,
		Embedding:  nil,
	}

	assert.Nil(t, chunk.Embedding)
}

// TestChunk_LargeEmbedding tests chunk with large embedding vector
func TestChunk_LargeEmbedding(t *testing.T) {
	// 1536 dimensions (OpenAI text-embedding-3-small size)
	embedding := make([]float32, 1536)
	for i := range embedding {
		embedding[i] = float32(i) * 0.001
	}

	chunk := Chunk{
		ID:         "chunk-123",
		DocumentID: "doc-456",
		Content:    "Content with large embedding",
		Position:   0,
		Embedding:  embedding,
	}

	assert.Len(t, chunk.Embedding, 1536)
	assert.Equal(t, float32(0.0), chunk.Embedding[0])
	// Use InDelta for floating point comparison
	assert.InDelta(t, 1.535, chunk.Embedding[1535], 0.0001)
}

// TestDocument_MultipleChunks tests relationship between document and multiple chunks
func TestDocument_MultipleChunks(t *testing.T) {
	docID := "github:acme/api/README.md"

	chunks := []Chunk{
		{ID: "chunk-1", DocumentID: docID, Content: "First chunk", Position: 0},
		{ID: "chunk-2", DocumentID: docID, Content: "Second chunk", Position: 1},
		{ID: "chunk-3", DocumentID: docID, Content: "Third chunk", Position: 2},
	}

	// Verify all chunks reference the same document
	for _, chunk := range chunks {
		assert.Equal(t, docID, chunk.DocumentID)
	}

	// Verify positions are sequential
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Position)
	}
}
