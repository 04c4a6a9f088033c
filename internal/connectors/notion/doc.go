// Package notion implements the source accessor for Notion workspaces.
//
// The accessor exposes read operations over the Notion REST API: listing
// pages, fetching a page with its block content flattened to plain text,
// full-text search, and querying database rows. Results are normalised to
// [domain.Document] values so the rest of the pipeline never sees Notion
// wire types.
//
// # Authentication
//
// An internal integration token is required. Pages and databases must be
// shared with the integration before they appear in results.
//
// # Rate Limiting
//
// Every API call goes through a shared [ratelimit.Limiter]. Notion's
// rate-limited responses (HTTP 429) classify as transient, so the limiter
// backs off and retries instead of failing.
//
// # References and Document IDs
//
// Pages are addressed by their page ID. Document IDs are derived
// deterministically as "notion:{page_id}", using the canonical dashed ID
// the API returns, so re-ingesting a page supersedes the old version.
//
// # Content Flattening
//
// Fetch reads all top-level block children (following cursor pagination)
// and extracts the plain text of paragraphs, headings, list items, to-dos,
// toggles, quotes, callouts and code blocks, one line per block. Nested
// children and non-text blocks (images, tables, embeds) are skipped.
package notion
