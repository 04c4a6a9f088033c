package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/ratelimit"
)

// Ensure Accessor implements the interface.
var _ driven.SourceAccessor = (*Accessor)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchPageSize is the code search page size when none is given.
	DefaultSearchPageSize = 10

	// maxPageSize is the largest page the GitHub API serves.
	maxPageSize = 100
)

// Config holds configuration for the GitHub accessor.
type Config struct {
	// Token is a personal access token or OAuth access token (required).
	Token string

	// BaseURL overrides the API endpoint (for GitHub Enterprise).
	// Must include the full API prefix.
	BaseURL string

	// Timeout is the HTTP request timeout (default: 30s).
	Timeout time.Duration

	// Limiter paces and retries outbound calls. Defaults to a limiter
	// with source key "github".
	Limiter *ratelimit.Limiter
}

// Accessor reads repositories, file contents and code search results
// through the GitHub REST API.
type Accessor struct {
	gh      *gh.Client
	limiter *ratelimit.Limiter
}

// New creates a GitHub accessor authenticated with the given token.
func New(cfg Config) (*Accessor, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.Config{SourceKey: "github"})
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = cfg.Timeout

	client := gh.NewClient(tc)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base URL: %w", err)
		}
		client.BaseURL = base
	}

	return &Accessor{
		gh:      client,
		limiter: cfg.Limiter,
	}, nil
}

// Source identifies this accessor as the GitHub source.
func (a *Accessor) Source() domain.Source {
	return domain.SourceGitHub
}

// List returns the repositories accessible to the authenticated user as
// document summaries. Visibility filters to "all", "public" or "private";
// empty means "all". A positive Limit bounds the result, zero lists all.
func (a *Accessor) List(ctx context.Context, opts driven.ListOptions) ([]domain.Document, error) {
	visibility := opts.Visibility
	switch visibility {
	case "":
		visibility = "all"
	case "all", "public", "private":
	default:
		return nil, &domain.ValidationError{
			Field:  "visibility",
			Reason: fmt.Sprintf("must be all, public or private, got %q", opts.Visibility),
		}
	}

	perPage := maxPageSize
	if opts.Limit > 0 && opts.Limit < perPage {
		perPage = opts.Limit
	}

	ghOpts := &gh.RepositoryListByAuthenticatedUserOptions{
		Visibility:  visibility,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var docs []domain.Document
	for {
		var (
			repos []*gh.Repository
			resp  *gh.Response
		)
		err := a.limiter.Do(ctx, func(ctx context.Context) error {
			var err error
			repos, resp, err = a.gh.Repositories.ListByAuthenticatedUser(ctx, ghOpts)
			return wrapError(err)
		})
		if err != nil {
			return nil, err
		}

		for _, repo := range repos {
			docs = append(docs, repoDocument(repo))
			if opts.Limit > 0 && len(docs) >= opts.Limit {
				return docs, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		ghOpts.Page = resp.NextPage
	}

	return docs, nil
}

// Fetch retrieves a single file's content. The reference format is
// "owner/repo/path[@ref]"; the document ID is "github:owner/repo/path".
func (a *Accessor) Fetch(ctx context.Context, reference string) (*domain.Document, error) {
	ref, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}

	var content *gh.RepositoryContent
	err = a.limiter.Do(ctx, func(ctx context.Context) error {
		opts := &gh.RepositoryContentGetOptions{Ref: ref.Ref}
		fileContent, _, _, err := a.gh.Repositories.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
		if err != nil {
			return wrapError(err)
		}
		if fileContent == nil {
			return &APIError{
				StatusCode: http.StatusNotFound,
				Message:    fmt.Sprintf("%s is a directory, not a file", ref.Path),
			}
		}
		content = fileContent
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, &domain.NotFoundError{Reference: reference}
		}
		return nil, err
	}

	text, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	doc := fileDocument(ref, content, text)
	return &doc, nil
}

// Search runs a code search and returns matching files as documents whose
// content holds the matched fragments. Limit is clamped to the API's 1-100
// page range; zero means the default page size.
func (a *Accessor) Search(ctx context.Context, query string, opts driven.SearchOptions) ([]domain.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	perPage := opts.Limit
	if perPage <= 0 {
		perPage = DefaultSearchPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	ghOpts := &gh.SearchOptions{
		TextMatch:   true,
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var result *gh.CodeSearchResult
	err := a.limiter.Do(ctx, func(ctx context.Context) error {
		res, _, err := a.gh.Search.Code(ctx, query, ghOpts)
		if err != nil {
			return wrapError(err)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(result.CodeResults))
	for _, code := range result.CodeResults {
		docs = append(docs, codeResultDocument(code))
	}
	return docs, nil
}
