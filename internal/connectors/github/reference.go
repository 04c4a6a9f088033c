package github

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// Reference identifies a file within a repository.
// The wire format is "owner/repo/path" with an optional "@ref" suffix
// pinning a branch, tag or commit.
type Reference struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// String returns the wire form of the reference.
func (r Reference) String() string {
	s := fmt.Sprintf("%s/%s/%s", r.Owner, r.Repo, r.Path)
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}

// BuildReference assembles the wire form from its parts.
func BuildReference(owner, repo, path, ref string) string {
	return Reference{Owner: owner, Repo: repo, Path: path, Ref: ref}.String()
}

// ParseReference parses "owner/repo/path[@ref]". The ref, when present,
// is everything after the last "@" so branch names may contain slashes.
func ParseReference(reference string) (Reference, error) {
	rest := reference
	var ref string
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest, ref = rest[:i], rest[i+1:]
		if ref == "" {
			return Reference{}, &domain.ValidationError{
				Field:  "reference",
				Reason: "ref after @ must not be empty",
			}
		}
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Reference{}, &domain.ValidationError{
			Field:  "reference",
			Reason: fmt.Sprintf("want owner/repo/path[@ref], got %q", reference),
		}
	}

	return Reference{Owner: parts[0], Repo: parts[1], Path: parts[2], Ref: ref}, nil
}

// documentID derives the canonical document ID for a repository file.
func documentID(owner, repo, path string) string {
	return fmt.Sprintf("github:%s/%s/%s", owner, repo, path)
}
