package driven

import (
	"context"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// DocumentStore persists normalised documents.
// Chunks live in the VectorIndex; the store keeps the full documents so
// citations and resource reads can recover titles and content.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all stored documents ordered by ID.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
