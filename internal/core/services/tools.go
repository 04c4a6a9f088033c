package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/core/ports/driving"
	"github.com/custodia-labs/corra/internal/logger"
)

// Ensure ToolService implements the interface.
var _ driving.Tools = (*ToolService)(nil)

// toolCatalogue is the fixed tool set, in the order list_tools reports it.
var toolCatalogue = []driving.ToolSpec{
	{Name: "notion.list_pages", Description: "List Notion pages"},
	{Name: "notion.fetch_page", Description: "Fetch a Notion page with its content"},
	{Name: "notion.search", Description: "Search Notion pages"},
	{Name: "notion.query_database", Description: "Query a Notion database"},
	{Name: "github.list_repos", Description: "List GitHub repositories"},
	{Name: "github.fetch_file_content", Description: "Fetch file content from GitHub"},
	{Name: "github.search_code", Description: "Search code on GitHub"},
	{Name: "agent.ingest", Description: "Ingest one document into the vector index"},
	{Name: "agent.ingest_batch", Description: "Ingest Notion and GitHub content into the vector index"},
	{Name: "agent.query", Description: "Query the RAG index and generate an answer"},
}

// ToolService dispatches tool calls to the source accessors and the agent.
type ToolService struct {
	agent     driving.Agent
	accessors map[domain.Source]driven.SourceAccessor
}

// NewToolService creates a new tool dispatcher.
func NewToolService(agent driving.Agent, accessors []driven.SourceAccessor) *ToolService {
	bySource := make(map[domain.Source]driven.SourceAccessor, len(accessors))
	for _, accessor := range accessors {
		if accessor != nil {
			bySource[accessor.Source()] = accessor
		}
	}
	return &ToolService{
		agent:     agent,
		accessors: bySource,
	}
}

// ListTools returns the catalogue in stable order.
func (s *ToolService) ListTools() []driving.ToolSpec {
	specs := make([]driving.ToolSpec, len(toolCatalogue))
	copy(specs, toolCatalogue)
	return specs
}

// CallTool validates the arguments and invokes the named tool. Unknown
// names and missing or mistyped required arguments fail with
// domain.ValidationError before any tool logic runs.
func (s *ToolService) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	logger.Debug("Tool call: %s", name)

	switch name {
	case "notion.list_pages":
		return s.notionListPages(ctx, args)
	case "notion.fetch_page":
		return s.notionFetchPage(ctx, args)
	case "notion.search":
		return s.notionSearch(ctx, args)
	case "notion.query_database":
		return s.notionQueryDatabase(ctx, args)
	case "github.list_repos":
		return s.githubListRepos(ctx, args)
	case "github.fetch_file_content":
		return s.githubFetchFileContent(ctx, args)
	case "github.search_code":
		return s.githubSearchCode(ctx, args)
	case "agent.ingest":
		return s.agentIngest(ctx, args)
	case "agent.ingest_batch":
		return s.agentIngestBatch(ctx, args)
	case "agent.query":
		return s.agentQuery(ctx, args)
	default:
		return nil, &domain.ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("unknown tool %q", name),
		}
	}
}

// documentResult is the wire shape of a document.
type documentResult struct {
	ID       string            `json:"id"`
	Source   string            `json:"source"`
	Title    string            `json:"title"`
	Content  string            `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Origin   string            `json:"origin,omitempty"`
}

// itemsResult wraps document summaries for list-shaped tools.
type itemsResult struct {
	Items []documentResult `json:"items"`
}

func toResult(doc domain.Document) documentResult {
	return documentResult{
		ID:       doc.ID,
		Source:   doc.Source.String(),
		Title:    doc.Title,
		Content:  doc.Content,
		Metadata: doc.Metadata,
		Origin:   doc.Origin,
	}
}

func toItems(docs []domain.Document) itemsResult {
	items := make([]documentResult, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toResult(doc))
	}
	return itemsResult{Items: items}
}

func (s *ToolService) notionListPages(ctx context.Context, args map[string]any) (any, error) {
	pageSize, err := intArg(args, "page_size")
	if err != nil {
		return nil, err
	}
	accessor, err := s.accessor(domain.SourceNotion)
	if err != nil {
		return nil, err
	}

	docs, err := accessor.List(ctx, driven.ListOptions{Limit: pageSize})
	if err != nil {
		return nil, err
	}
	return toItems(docs), nil
}

func (s *ToolService) notionFetchPage(ctx context.Context, args map[string]any) (any, error) {
	pageID, err := stringArg(args, "page_id", true)
	if err != nil {
		return nil, err
	}
	accessor, err := s.accessor(domain.SourceNotion)
	if err != nil {
		return nil, err
	}

	doc, err := accessor.Fetch(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return toResult(*doc), nil
}

func (s *ToolService) notionSearch(ctx context.Context, args map[string]any) (any, error) {
	query, err := stringArg(args, "query", true)
	if err != nil {
		return nil, err
	}
	pageSize, err := intArg(args, "page_size")
	if err != nil {
		return nil, err
	}
	accessor, err := s.accessor(domain.SourceNotion)
	if err != nil {
		return nil, err
	}

	docs, err := accessor.Search(ctx, query, driven.SearchOptions{Limit: pageSize})
	if err != nil {
		return nil, err
	}
	return toItems(docs), nil
}

func (s *ToolService) notionQueryDatabase(ctx context.Context, args map[string]any) (any, error) {
	databaseID, err := stringArg(args, "database_id", true)
	if err != nil {
		return nil, err
	}
	pageSize, err := intArg(args, "page_size")
	if err != nil {
		return nil, err
	}
	accessor, err := s.accessor(domain.SourceNotion)
	if err != nil {
		return nil, err
	}
	querier, ok := accessor.(driven.DatabaseQuerier)
	if !ok {
		return nil, fmt.Errorf("%s accessor does not support database queries", domain.SourceNotion)
	}

	docs, err := querier.QueryDatabase(ctx, databaseID, driven.SearchOptions{Limit: pageSize})
	if err != nil {
		return nil, err
	}
	return toItems(docs), nil
}

func (s *ToolService) githubListRepos(ctx context.Context, args map[string]any) (any, error) {
	visibility, err := stringArg(args, "visibility", false)
	if err != nil {
		return nil, err
	}
	accessor, err := s.accessor(domain.SourceGitHub)
	if err != nil {
		return nil, err
	}

	docs, err := accessor.List(ctx, driven.ListOptions{Visibility: visibility})
	if err != nil {
		return nil, err
	}
	return toItems(docs), nil
}

func (s *ToolService) githubFetchFileContent(ctx context.Context, args map[string]any) (any, error) {
	owner, err := stringArg(args, "owner", true)
	if err != nil {
		return nil, err
	}
	repo, err := stringArg(args, "repo", true)
	if err != nil {
		return nil, err
	}
	path, err := stringArg(args, "path", true)
	if err != nil {
		return nil, err
	}
	ref, err := stringArg(args, "ref", false)
	if err != nil {
		return nil, err
	}
	accessor, err := s.accessor(domain.SourceGitHub)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("%s/%s/%s", owner, repo, path)
	if ref != "" {
		reference += "@" + ref
	}

	doc, err := accessor.Fetch(ctx, reference)
	if err != nil {
		return nil, err
	}
	return toResult(*doc), nil
}

func (s *ToolService) githubSearchCode(ctx context.Context, args map[string]any) (any, error) {
	query, err := stringArg(args, "query", true)
	if err != nil {
		return nil, err
	}
	perPage, err := intArg(args, "per_page")
	if err != nil {
		return nil, err
	}
	accessor, err := s.accessor(domain.SourceGitHub)
	if err != nil {
		return nil, err
	}

	docs, err := accessor.Search(ctx, query, driven.SearchOptions{Limit: perPage})
	if err != nil {
		return nil, err
	}
	return toItems(docs), nil
}

func (s *ToolService) agentIngest(ctx context.Context, args map[string]any) (any, error) {
	rawSource, err := stringArg(args, "source", true)
	if err != nil {
		return nil, err
	}
	source, err := domain.ParseSource(rawSource)
	if err != nil {
		return nil, err
	}
	reference, err := stringArg(args, "reference", true)
	if err != nil {
		return nil, err
	}

	receipt, err := s.agent.Ingest(ctx, source, reference)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *ToolService) agentIngestBatch(ctx context.Context, args map[string]any) (any, error) {
	notionLimit, err := intArg(args, "notion_limit")
	if err != nil {
		return nil, err
	}
	owner, err := stringArg(args, "github_owner", false)
	if err != nil {
		return nil, err
	}
	repo, err := stringArg(args, "github_repo", false)
	if err != nil {
		return nil, err
	}
	paths, err := stringSliceArg(args, "github_paths")
	if err != nil {
		return nil, err
	}
	if (owner == "") != (repo == "") {
		return nil, &domain.ValidationError{
			Field:  "github_repo",
			Reason: "github_owner and github_repo are required together",
		}
	}

	receipt, err := s.agent.IngestBatch(ctx, driving.BatchRequest{
		NotionLimit: notionLimit,
		GitHubOwner: owner,
		GitHubRepo:  repo,
		GitHubPaths: paths,
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *ToolService) agentQuery(ctx context.Context, args map[string]any) (any, error) {
	query, err := stringArg(args, "query", true)
	if err != nil {
		return nil, err
	}

	answer, err := s.agent.Answer(ctx, query)
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// accessor returns the accessor for a source, or an error if the source
// was not configured at startup.
func (s *ToolService) accessor(source domain.Source) (driven.SourceAccessor, error) {
	accessor, ok := s.accessors[source]
	if !ok {
		return nil, fmt.Errorf("%s accessor not configured", source)
	}
	return accessor, nil
}

// stringArg extracts a string argument. Required arguments must be
// present and non-blank; optional ones default to "".
func stringArg(args map[string]any, name string, required bool) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		if required {
			return "", &domain.ValidationError{Field: name, Reason: "required"}
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &domain.ValidationError{Field: name, Reason: "must be a string"}
	}
	if required && strings.TrimSpace(s) == "" {
		return "", &domain.ValidationError{Field: name, Reason: "must not be empty"}
	}
	return s, nil
}

// intArg extracts an optional integer argument. JSON numbers arrive as
// float64; fractional values are rejected rather than truncated.
func intArg(args map[string]any, name string) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, &domain.ValidationError{Field: name, Reason: "must be an integer"}
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, &domain.ValidationError{Field: name, Reason: "must be an integer"}
	}
}

// stringSliceArg extracts an optional array-of-strings argument. JSON
// arrays arrive as []any; already-typed []string is accepted as is.
func stringSliceArg(args map[string]any, name string) ([]string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	switch items := raw.(type) {
	case []string:
		return append([]string(nil), items...), nil
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, &domain.ValidationError{Field: name, Reason: "must be an array of strings"}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &domain.ValidationError{Field: name, Reason: "must be an array of strings"}
	}
}
