package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// indexedDoc holds one document's chunk set and its ingestion sequence.
// The sequence is assigned on first upsert and survives re-upserts, so
// similarity ties resolve by which document was indexed first.
type indexedDoc struct {
	seq    uint64
	chunks []domain.Chunk
}

// VectorIndex is an in-memory implementation of driven.VectorIndex using
// exact cosine similarity. The first upsert fixes the dimensionality for
// the life of the index.
type VectorIndex struct {
	mu      sync.RWMutex
	docs    map[string]*indexedDoc
	nextSeq uint64
	dims    int
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		docs: make(map[string]*indexedDoc),
	}
}

// Upsert replaces all chunks for documentID with the supplied set. The
// swap happens under the write lock, so concurrent queries observe the
// old set or the new one, never a mixture. A failed validation leaves
// the index unchanged.
func (x *VectorIndex) Upsert(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if documentID == "" {
		return &domain.ValidationError{Field: "document_id", Reason: "must not be empty"}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	expected := x.dims
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return &domain.ValidationError{
				Field:  "embedding",
				Reason: fmt.Sprintf("chunk %s has no embedding", chunk.ID),
			}
		}
		if expected == 0 {
			expected = len(chunk.Embedding)
		}
		if len(chunk.Embedding) != expected {
			return &domain.ValidationError{
				Field:  "embedding",
				Reason: fmt.Sprintf("dimension mismatch: got %d, index holds %d", len(chunk.Embedding), expected),
			}
		}
	}

	entry, ok := x.docs[documentID]
	if !ok {
		x.nextSeq++
		entry = &indexedDoc{seq: x.nextSeq}
		x.docs[documentID] = entry
	}
	entry.chunks = append([]domain.Chunk(nil), chunks...)
	if x.dims == 0 {
		x.dims = expected
	}
	return nil
}

// Query returns the k chunks most similar to the query embedding, ordered
// by descending cosine similarity. Ties resolve by earliest document
// ingestion, then ascending chunk position. Fewer than k hits are
// returned when the index holds fewer chunks.
func (x *VectorIndex) Query(_ context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.dims != 0 && len(embedding) != x.dims {
		return nil, &domain.ValidationError{
			Field:  "embedding",
			Reason: fmt.Sprintf("dimension mismatch: got %d, index holds %d", len(embedding), x.dims),
		}
	}

	type scored struct {
		hit driven.VectorHit
		seq uint64
		pos int
	}
	var hits []scored
	for _, entry := range x.docs {
		for _, chunk := range entry.chunks {
			hits = append(hits, scored{
				hit: driven.VectorHit{Chunk: chunk, Similarity: cosine(embedding, chunk.Embedding)},
				seq: entry.seq,
				pos: chunk.Position,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].hit.Similarity != hits[j].hit.Similarity {
			return hits[i].hit.Similarity > hits[j].hit.Similarity
		}
		if hits[i].seq != hits[j].seq {
			return hits[i].seq < hits[j].seq
		}
		return hits[i].pos < hits[j].pos
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	result := make([]driven.VectorHit, len(hits))
	for i, h := range hits {
		result[i] = h.hit
	}
	return result, nil
}

// Delete removes all chunks for documentID. Absent documents are a no-op.
// A document deleted and later re-upserted counts as a fresh ingestion.
func (x *VectorIndex) Delete(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, documentID)
	return nil
}

// Close releases resources.
func (x *VectorIndex) Close() error {
	return nil
}

// cosine computes cosine similarity. Zero vectors score 0 rather than
// dividing by zero.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
