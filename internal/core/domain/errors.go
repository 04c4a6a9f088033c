package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrEmptyQuery indicates a query with no text was submitted.
	ErrEmptyQuery = errors.New("query text is required")

	// ErrEmptyDocument indicates a document with no content was submitted
	// for ingestion.
	ErrEmptyDocument = errors.New("document has no content")

	// ErrLLMUnavailable indicates the reasoning service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ExternalCallError reports that an outbound call failed permanently or
// exhausted its retry budget. The last underlying cause is preserved.
type ExternalCallError struct {
	// SourceKey identifies the rate-limiter bucket the call went through
	// (e.g. "notion", "github", "openai").
	SourceKey string

	// Attempts is the number of attempts made before giving up.
	Attempts int

	// LastCause is the error from the final attempt.
	LastCause error
}

// Error implements the error interface.
func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s: call failed after %d attempt(s): %v", e.SourceKey, e.Attempts, e.LastCause)
}

// Unwrap returns the underlying cause.
func (e *ExternalCallError) Unwrap() error {
	return e.LastCause
}

// NotFoundError reports that an upstream source says the reference does not
// exist. A local classification, never retried.
type NotFoundError struct {
	// Reference is the upstream identifier that could not be resolved.
	Reference string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Reference)
}

// ValidationError reports a malformed tool request or invalid input.
type ValidationError struct {
	// Field names the offending argument, when known.
	Field string

	// Reason describes what is wrong with it.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// PipelineError reports a failure in a RAG pipeline stage.
type PipelineError struct {
	// Stage names the failed step (e.g. "embed", "retrieve", "reason").
	Stage string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ProtocolError reports a malformed wire message.
type ProtocolError struct {
	// Reason describes the parse or framing failure.
	Reason string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// IsExternalCall reports whether err is an ExternalCallError.
func IsExternalCall(err error) bool {
	var target *ExternalCallError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPipeline reports whether err is a PipelineError.
func IsPipeline(err error) bool {
	var target *PipelineError
	return errors.As(err, &target)
}

// IsProtocol reports whether err is a ProtocolError.
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}
