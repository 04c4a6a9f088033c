// Package domain defines the core business entities for Corra.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A normalized record fetched from an external source
//   - Chunk: A bounded span of a document's text, the unit of retrieval
//   - Answer: The terminal artifact of an agent query, with citations
//   - Source: The external system a document came from
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
