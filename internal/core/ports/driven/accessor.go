package driven

import (
	"context"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// SourceAccessor provides typed read operations against one external
// knowledge source. Every upstream call is routed through the shared
// rate-limited client, so implementations surface domain.ExternalCallError
// on exhausted retries and domain.NotFoundError on missing references.
//
// Normalisation is deterministic: fetching the same reference twice yields
// documents equal in ID, Title, Content and Origin; only genuinely
// time-varying metadata (e.g. last_edited) may differ between calls.
type SourceAccessor interface {
	// Source identifies which external system this accessor reads.
	Source() domain.Source

	// List returns document summaries. Summaries carry identity and
	// metadata; Content is best-effort and may be empty.
	List(ctx context.Context, opts ListOptions) ([]domain.Document, error)

	// Fetch retrieves one fully populated document by its upstream
	// reference.
	Fetch(ctx context.Context, reference string) (*domain.Document, error)

	// Search returns document summaries matching the query text.
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.Document, error)
}

// ListOptions filters a SourceAccessor.List call.
type ListOptions struct {
	// Limit caps the number of summaries returned.
	// Zero means the accessor's default.
	Limit int

	// Visibility filters repositories ("all", "public", "private").
	// Only meaningful for the code-hosting source; others ignore it.
	Visibility string
}

// SearchOptions filters a SourceAccessor.Search call.
type SearchOptions struct {
	// Limit caps the number of summaries returned.
	// Zero means the accessor's default.
	Limit int
}

// DatabaseQuerier is an optional interface for accessors whose source
// exposes structured databases (the documentation source). Callers
// type-assert the SourceAccessor to discover support.
type DatabaseQuerier interface {
	// QueryDatabase returns the rows of a database as document summaries.
	QueryDatabase(ctx context.Context, databaseID string, opts SearchOptions) ([]domain.Document, error)
}
