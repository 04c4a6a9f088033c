package driven

import (
	"context"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// VectorIndex provides semantic similarity search over chunk embeddings.
type VectorIndex interface {
	// Upsert replaces all chunks indexed for the given document with the
	// supplied set. The swap is atomic: a concurrent Query sees either the
	// old chunks or the new ones, never a mixture.
	Upsert(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// Query finds the k most similar chunks to the query embedding,
	// ordered by descending similarity.
	Query(ctx context.Context, embedding []float32, k int) ([]VectorHit, error)

	// Delete removes all chunks indexed for the given document.
	Delete(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk, embedding included.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score.
	Similarity float64
}
