// Package github implements the source accessor for GitHub repositories.
//
// The accessor exposes three read operations over the GitHub REST API:
// listing repositories accessible to the authenticated user, fetching a
// single file's content, and code search. Results are normalised to
// [domain.Document] values so the rest of the pipeline never sees GitHub
// wire types.
//
// # Authentication
//
// A personal access token (classic or fine-grained) or an OAuth access
// token is required. Private repository access needs the 'repo' scope.
// Authenticated requests are limited to 5,000 per hour by GitHub.
//
// # Rate Limiting
//
// Every API call goes through a shared [ratelimit.Limiter], which paces
// requests with a token bucket and retries transient failures with
// exponential backoff. GitHub's primary and secondary rate limit errors
// are mapped to HTTP 429 so the limiter backs off instead of failing.
//
// # References and Document IDs
//
// Files are addressed as "owner/repo/path" with an optional "@ref" suffix
// pinning a branch, tag or commit. Document IDs are derived
// deterministically:
//
//   - Repositories: github:{owner}/{repo}
//   - Files: github:{owner}/{repo}/{path}
//
// The ref never participates in the ID, so re-ingesting a file at a new
// ref supersedes the old version.
//
// # Limitations
//
//   - Fetch returns file content only; directories are reported as not found
//   - Files larger than 1MB are not decoded (GitHub contents API constraint)
//   - Search returns matched fragments, not whole files
package github
