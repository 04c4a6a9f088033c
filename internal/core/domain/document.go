package domain

// Document is the canonical representation of a record fetched from an
// external source, after normalisation to plain text.
// Documents are immutable once ingested; re-ingestion supersedes the
// previous version rather than mutating it.
type Document struct {
	// ID is the unique identifier for the document.
	// Accessors derive it deterministically from the upstream reference.
	ID string

	// Source identifies the external system the document came from.
	Source Source

	// Title is the human-readable title.
	Title string

	// Content is the full plain-text content before chunking.
	Content string

	// Metadata contains source-specific key-value pairs
	// (e.g. path, repo, last_edited).
	Metadata map[string]string

	// Origin is the URL or path back to the upstream record.
	Origin string
}

// Chunk is a bounded span of a document's text, the unit of retrieval.
// One document yields an ordered sequence of chunks with contiguous
// positions starting at 0. Chunks are never mutated after creation,
// only superseded by re-ingestion.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links back to the parent Document. A back-reference,
	// not ownership: deleting the document's chunks does not touch the
	// document record.
	DocumentID string

	// Content is the text span of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for similarity search.
	// Every embedding in an index has the same dimensionality.
	Embedding []float32
}
