package domain

import "fmt"

// Source identifies which external system a document came from.
type Source string

const (
	// SourceNotion is the documentation service.
	SourceNotion Source = "notion"

	// SourceGitHub is the code-hosting service.
	SourceGitHub Source = "github"
)

// Validate returns an error if the source is not a known value.
func (s Source) Validate() error {
	switch s {
	case SourceNotion, SourceGitHub:
		return nil
	default:
		return &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", string(s))}
	}
}

// String returns the wire representation of the source.
func (s Source) String() string {
	return string(s)
}

// ParseSource converts a wire string into a Source.
func ParseSource(raw string) (Source, error) {
	s := Source(raw)
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}
