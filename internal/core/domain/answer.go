package domain

// RetrievalResult pairs a retrieved chunk with its similarity score and the
// document it belongs to. Ephemeral: produced per query, never stored.
type RetrievalResult struct {
	// Chunk is the retrieved chunk.
	Chunk Chunk

	// Similarity is the cosine similarity to the query embedding.
	// Higher is closer.
	Similarity float64

	// Document is the source document backing the chunk.
	// Nil if the document record is no longer available.
	Document *Document
}

// Citation references a document that supports an answer.
type Citation struct {
	// Source is the external system the document came from.
	Source Source `json:"source"`

	// Title is the document title.
	Title string `json:"title"`

	// Origin is the URL or path back to the upstream record.
	Origin string `json:"origin"`
}

// Answer is the terminal artifact of an agent query.
// Sources reference only documents actually retrieved for the query,
// ordered by first appearance in the similarity ranking.
type Answer struct {
	// Text is the synthesized answer.
	Text string `json:"answer"`

	// Sources cites the documents the answer draws on.
	Sources []Citation `json:"sources"`

	// Confidence is a derived scalar in [0,1] indicating retrieval
	// strength. Not a calibrated probability. Zero when nothing was
	// retrieved.
	Confidence float64 `json:"confidence_score"`
}
