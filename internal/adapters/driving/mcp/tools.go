package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListPagesInput is the input schema for the notion.list_pages tool.
type ListPagesInput struct {
	PageSize int `json:"page_size,omitempty" jsonschema:"maximum number of pages to return (default 10)"`
}

// FetchPageInput is the input schema for the notion.fetch_page tool.
type FetchPageInput struct {
	PageID string `json:"page_id" jsonschema:"the Notion page id to fetch"`
}

// SearchPagesInput is the input schema for the notion.search tool.
type SearchPagesInput struct {
	Query    string `json:"query" jsonschema:"the text to search pages for"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"maximum number of pages to return (default 10)"`
}

// QueryDatabaseInput is the input schema for the notion.query_database tool.
type QueryDatabaseInput struct {
	DatabaseID string `json:"database_id" jsonschema:"the Notion database id to query"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"maximum number of rows to return"`
}

// ListReposInput is the input schema for the github.list_repos tool.
type ListReposInput struct {
	Visibility string `json:"visibility,omitempty" jsonschema:"repository visibility filter: all, public or private (default all)"`
}

// FetchFileInput is the input schema for the github.fetch_file_content tool.
type FetchFileInput struct {
	Owner string `json:"owner" jsonschema:"the repository owner"`
	Repo  string `json:"repo" jsonschema:"the repository name"`
	Path  string `json:"path" jsonschema:"the file path within the repository"`
	Ref   string `json:"ref,omitempty" jsonschema:"branch, tag or commit (default branch when omitted)"`
}

// SearchCodeInput is the input schema for the github.search_code tool.
type SearchCodeInput struct {
	Query   string `json:"query" jsonschema:"the code search query"`
	PerPage int    `json:"per_page,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// IngestInput is the input schema for the agent.ingest tool.
type IngestInput struct {
	Source    string `json:"source" jsonschema:"the knowledge source: notion or github"`
	Reference string `json:"reference" jsonschema:"the upstream reference, e.g. a page id or owner/repo/path"`
}

// IngestBatchInput is the input schema for the agent.ingest_batch tool.
type IngestBatchInput struct {
	NotionLimit int      `json:"notion_limit,omitempty" jsonschema:"how many recent Notion pages to ingest (default 5)"`
	GitHubOwner string   `json:"github_owner,omitempty" jsonschema:"owner of the repository to ingest files from"`
	GitHubRepo  string   `json:"github_repo,omitempty" jsonschema:"name of the repository to ingest files from"`
	GitHubPaths []string `json:"github_paths,omitempty" jsonschema:"repository file paths to ingest (default README.md)"`
}

// QueryInput is the input schema for the agent.query tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the indexed documents"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "notion.list_pages",
		Description: "List Notion pages",
	}, s.handleListPages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "notion.fetch_page",
		Description: "Fetch a Notion page with its content",
	}, s.handleFetchPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "notion.search",
		Description: "Search Notion pages",
	}, s.handleSearchPages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "notion.query_database",
		Description: "Query a Notion database",
	}, s.handleQueryDatabase)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "github.list_repos",
		Description: "List GitHub repositories",
	}, s.handleListRepos)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "github.fetch_file_content",
		Description: "Fetch file content from GitHub",
	}, s.handleFetchFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "github.search_code",
		Description: "Search code on GitHub",
	}, s.handleSearchCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "agent.ingest",
		Description: "Ingest one document into the vector index",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "agent.ingest_batch",
		Description: "Ingest Notion and GitHub content into the vector index",
	}, s.handleIngestBatch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "agent.query",
		Description: "Query the RAG index and generate an answer",
	}, s.handleQuery)
}

// callTool delegates to the shared dispatcher and renders the result as
// JSON text content, so both protocol servers run the same tool logic.
func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, any, error) {
	result, err := s.ports.Tools.CallTool(ctx, name, args)
	if err != nil {
		return nil, nil, err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling %s result: %w", name, err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func (s *Server) handleListPages(ctx context.Context, _ *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{}
	if input.PageSize > 0 {
		args["page_size"] = input.PageSize
	}
	return s.callTool(ctx, "notion.list_pages", args)
}

func (s *Server) handleFetchPage(ctx context.Context, _ *mcp.CallToolRequest, input FetchPageInput) (*mcp.CallToolResult, any, error) {
	return s.callTool(ctx, "notion.fetch_page", map[string]any{
		"page_id": input.PageID,
	})
}

func (s *Server) handleSearchPages(ctx context.Context, _ *mcp.CallToolRequest, input SearchPagesInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{"query": input.Query}
	if input.PageSize > 0 {
		args["page_size"] = input.PageSize
	}
	return s.callTool(ctx, "notion.search", args)
}

func (s *Server) handleQueryDatabase(ctx context.Context, _ *mcp.CallToolRequest, input QueryDatabaseInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{"database_id": input.DatabaseID}
	if input.PageSize > 0 {
		args["page_size"] = input.PageSize
	}
	return s.callTool(ctx, "notion.query_database", args)
}

func (s *Server) handleListRepos(ctx context.Context, _ *mcp.CallToolRequest, input ListReposInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{}
	if input.Visibility != "" {
		args["visibility"] = input.Visibility
	}
	return s.callTool(ctx, "github.list_repos", args)
}

func (s *Server) handleFetchFile(ctx context.Context, _ *mcp.CallToolRequest, input FetchFileInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{
		"owner": input.Owner,
		"repo":  input.Repo,
		"path":  input.Path,
	}
	if input.Ref != "" {
		args["ref"] = input.Ref
	}
	return s.callTool(ctx, "github.fetch_file_content", args)
}

func (s *Server) handleSearchCode(ctx context.Context, _ *mcp.CallToolRequest, input SearchCodeInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{"query": input.Query}
	if input.PerPage > 0 {
		args["per_page"] = input.PerPage
	}
	return s.callTool(ctx, "github.search_code", args)
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, any, error) {
	return s.callTool(ctx, "agent.ingest", map[string]any{
		"source":    input.Source,
		"reference": input.Reference,
	})
}

func (s *Server) handleIngestBatch(ctx context.Context, _ *mcp.CallToolRequest, input IngestBatchInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{}
	if input.NotionLimit > 0 {
		args["notion_limit"] = input.NotionLimit
	}
	if input.GitHubOwner != "" {
		args["github_owner"] = input.GitHubOwner
	}
	if input.GitHubRepo != "" {
		args["github_repo"] = input.GitHubRepo
	}
	if len(input.GitHubPaths) > 0 {
		args["github_paths"] = input.GitHubPaths
	}
	return s.callTool(ctx, "agent.ingest_batch", args)
}

func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, any, error) {
	return s.callTool(ctx, "agent.query", map[string]any{
		"query": input.Query,
	})
}
