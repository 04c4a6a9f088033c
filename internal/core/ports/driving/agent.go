package driving

import (
	"context"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// Agent runs the retrieval pipeline: ingestion of external documents and
// grounded question answering over what has been indexed.
type Agent interface {
	// Ingest fetches one document by reference, chunks and embeds it, and
	// indexes the result. Re-ingesting a reference supersedes the chunks
	// indexed for it previously.
	Ingest(ctx context.Context, source domain.Source, reference string) (*IngestReceipt, error)

	// IngestBatch ingests the most recent documentation pages plus the
	// named repository files. Per-document failures are collected in the
	// receipt; they never abort the rest of the batch.
	IngestBatch(ctx context.Context, req BatchRequest) (*BatchReceipt, error)

	// Answer retrieves the chunks most similar to the question and asks
	// the reasoner for an answer grounded in them. An empty index yields
	// an answer with zero confidence and no reasoner call.
	Answer(ctx context.Context, question string) (*domain.Answer, error)

	// Indexed lists all documents currently indexed.
	Indexed(ctx context.Context) ([]domain.Document, error)

	// IndexedDocument returns one indexed document by ID.
	IndexedDocument(ctx context.Context, id string) (*domain.Document, error)
}

// IngestReceipt reports a single-document ingestion.
type IngestReceipt struct {
	DocumentID    string `json:"document_id"`
	Source        string `json:"source"`
	Title         string `json:"title"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// BatchRequest selects the documents for a bulk ingestion.
type BatchRequest struct {
	// NotionLimit caps how many documentation pages are pulled.
	// Zero means the default (5).
	NotionLimit int

	// GitHubOwner and GitHubRepo name the repository to pull files from.
	// When either is empty the code source is skipped.
	GitHubOwner string
	GitHubRepo  string

	// GitHubPaths are the repository file paths to ingest.
	// Empty means README.md.
	GitHubPaths []string
}

// BatchReceipt reports a bulk ingestion.
type BatchReceipt struct {
	DocumentsIngested int            `json:"documents_ingested"`
	ChunksIndexed     int            `json:"chunks_indexed"`
	Failures          []BatchFailure `json:"failures,omitempty"`
}

// BatchFailure records one document that could not be ingested.
type BatchFailure struct {
	Source    string `json:"source"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}
