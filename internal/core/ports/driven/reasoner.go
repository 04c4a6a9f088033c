package driven

import "context"

// Reasoner produces grounded natural-language answers from retrieved context.
// Implementations own prompt assembly; callers hand over the question and the
// already-redacted context text and receive prose back.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini, gpt-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
type Reasoner interface {
	// Complete answers the question using only the supplied context text.
	// The context is the concatenation of retrieved chunks; an empty
	// context still yields an answer stating nothing relevant was found.
	Complete(ctx context.Context, question, contextText string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity before serving queries.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
