package notion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/ratelimit"
)

// Ensure Accessor implements the interfaces.
var (
	_ driven.SourceAccessor  = (*Accessor)(nil)
	_ driven.DatabaseQuerier = (*Accessor)(nil)
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the page size when none is given.
	DefaultPageSize = 10

	// maxPageSize is the largest page the Notion API serves.
	maxPageSize = 100
)

// Config holds configuration for the Notion accessor.
type Config struct {
	// Token is an internal integration token (required).
	Token string

	// Timeout is the HTTP request timeout (default: 30s).
	Timeout time.Duration

	// Limiter paces and retries outbound calls. Defaults to a limiter
	// with source key "notion".
	Limiter *ratelimit.Limiter
}

// Accessor reads pages, block content and database rows through the
// Notion REST API.
type Accessor struct {
	api     *notionapi.Client
	limiter *ratelimit.Limiter
}

// New creates a Notion accessor authenticated with the given token.
func New(cfg Config) (*Accessor, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion: token is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.Config{SourceKey: "notion"})
	}

	api := notionapi.NewClient(
		notionapi.Token(cfg.Token),
		notionapi.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)

	return &Accessor{
		api:     api,
		limiter: cfg.Limiter,
	}, nil
}

// Source identifies this accessor as the Notion source.
func (a *Accessor) Source() domain.Source {
	return domain.SourceNotion
}

// List returns page summaries for the workspace, newest first as the API
// serves them. Limit is clamped to the API's 1-100 page range; zero means
// the default page size. Visibility has no meaning for Notion.
func (a *Accessor) List(ctx context.Context, opts driven.ListOptions) ([]domain.Document, error) {
	return a.searchPages(ctx, "", clampPageSize(opts.Limit))
}

// Fetch retrieves one page and flattens its block children to plain text.
// The reference is the page ID; the document ID is "notion:{page_id}" with
// the canonical dashed ID the API returns.
func (a *Accessor) Fetch(ctx context.Context, reference string) (*domain.Document, error) {
	pageID := strings.TrimSpace(reference)
	if pageID == "" {
		return nil, &domain.ValidationError{
			Field:  "reference",
			Reason: "page ID must not be empty",
		}
	}

	var page *notionapi.Page
	err := a.limiter.Do(ctx, func(ctx context.Context) error {
		p, err := a.api.Page.Get(ctx, notionapi.PageID(pageID))
		if err != nil {
			return wrapError(err)
		}
		page = p
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, &domain.NotFoundError{Reference: reference}
		}
		return nil, err
	}

	blocks, err := a.pageBlocks(ctx, notionapi.BlockID(pageID))
	if err != nil {
		return nil, err
	}

	doc := pageDocument(page, pageText(blocks))
	return &doc, nil
}

// Search returns page summaries matching the query text. Limit is clamped
// to the API's 1-100 page range; zero means the default page size.
func (a *Accessor) Search(ctx context.Context, query string, opts driven.SearchOptions) ([]domain.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	return a.searchPages(ctx, query, clampPageSize(opts.Limit))
}

// QueryDatabase returns the rows of a database as page summaries. A zero
// limit defers to the API's own default page size.
func (a *Accessor) QueryDatabase(ctx context.Context, databaseID string, opts driven.SearchOptions) ([]domain.Document, error) {
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		return nil, &domain.ValidationError{
			Field:  "database_id",
			Reason: "database ID must not be empty",
		}
	}

	req := &notionapi.DatabaseQueryRequest{}
	if opts.Limit > 0 {
		req.PageSize = clampPageSize(opts.Limit)
	}

	var resp *notionapi.DatabaseQueryResponse
	err := a.limiter.Do(ctx, func(ctx context.Context) error {
		res, err := a.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
		if err != nil {
			return wrapError(err)
		}
		resp = res
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, &domain.NotFoundError{Reference: databaseID}
		}
		return nil, err
	}

	docs := make([]domain.Document, 0, len(resp.Results))
	for i := range resp.Results {
		docs = append(docs, pageDocument(&resp.Results[i], ""))
	}
	return docs, nil
}

// searchPages runs one search request filtered to pages. An empty query
// lists the workspace's pages, which is how the API models listing.
func (a *Accessor) searchPages(ctx context.Context, query string, pageSize int) ([]domain.Document, error) {
	req := &notionapi.SearchRequest{
		Query:    query,
		PageSize: pageSize,
		Filter: notionapi.SearchFilter{
			Value:    "page",
			Property: "object",
		},
	}

	var resp *notionapi.SearchResponse
	err := a.limiter.Do(ctx, func(ctx context.Context) error {
		res, err := a.api.Search.Do(ctx, req)
		if err != nil {
			return wrapError(err)
		}
		resp = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(resp.Results))
	for _, result := range resp.Results {
		page, ok := result.(*notionapi.Page)
		if !ok {
			continue
		}
		docs = append(docs, pageDocument(page, ""))
	}
	return docs, nil
}

// pageBlocks reads all top-level block children, following cursor
// pagination. Each request consumes its own token from the limiter.
func (a *Accessor) pageBlocks(ctx context.Context, blockID notionapi.BlockID) ([]notionapi.Block, error) {
	var blocks []notionapi.Block
	var cursor notionapi.Cursor
	for {
		pagination := &notionapi.Pagination{PageSize: maxPageSize, StartCursor: cursor}

		var resp *notionapi.GetChildrenResponse
		err := a.limiter.Do(ctx, func(ctx context.Context) error {
			res, err := a.api.Block.GetChildren(ctx, blockID, pagination)
			if err != nil {
				return wrapError(err)
			}
			resp = res
			return nil
		})
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, resp.Results...)
		if !resp.HasMore {
			return blocks, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// clampPageSize maps a requested limit onto the API's 1-100 range.
func clampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
