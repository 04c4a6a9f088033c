// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the agent to function:
//
//   - SourceAccessor: Typed read operations against one external source
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - Reasoner: Synthesises a cited answer from retrieved context
//   - VectorIndex: In-memory chunk storage and cosine similarity search
//   - DocumentStore: Document records backing citations
//   - PostProcessorPipeline: Splits documents into chunks before embedding
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - DatabaseQuerier: Structured database queries (documentation source)
//   - PromptStore: User-customisable prompt templates
//   - PromptStoreAware: Adapters that accept an injected PromptStore
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
