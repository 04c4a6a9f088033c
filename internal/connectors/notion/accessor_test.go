package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/ratelimit"
)

const pageJSON = `{
	"object": "page",
	"id": "11111111-1111-1111-1111-111111111111",
	"created_time": "2024-01-02T03:04:05Z",
	"last_edited_time": "2024-01-03T03:04:05Z",
	"archived": false,
	"url": "https://www.notion.so/Auth-Overview-11111111111111111111111111111111",
	"parent": {"type": "workspace", "workspace": true},
	"properties": {
		"title": {
			"id": "title",
			"type": "title",
			"title": [{"type": "text", "text": {"content": "Auth Overview"}, "plain_text": "Auth Overview"}]
		}
	}
}`

// rewriteTransport redirects every request to the stub server. The
// notionapi client offers no endpoint override, so tests rewrite the host.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.target.Scheme
	clone.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(clone)
}

// testLimiter never throttles and retries with millisecond backoff so the
// retry path runs without real delays.
func testLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.Config{
		SourceKey:   "notion",
		Rate:        10000,
		Burst:       100,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})
}

// testAccessor wires an Accessor to a stub API server.
func testAccessor(t *testing.T, handler http.Handler) *Accessor {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	api := notionapi.NewClient(
		notionapi.Token("secret-test"),
		notionapi.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}),
	)

	return &Accessor{api: api, limiter: testLimiter()}
}

func TestNew(t *testing.T) {
	t.Run("creates accessor with token", func(t *testing.T) {
		accessor, err := New(Config{Token: "secret-test"})

		require.NoError(t, err)
		require.NotNil(t, accessor)
		assert.Equal(t, domain.SourceNotion, accessor.Source())
	})

	t.Run("rejects missing token", func(t *testing.T) {
		_, err := New(Config{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "token is required")
	})
}

func TestAccessor_List(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("Notion-Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "query")
		assert.Equal(t, float64(10), body["page_size"])
		filter, ok := body["filter"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "page", filter["value"])
		assert.Equal(t, "object", filter["property"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"object":"list","results":[%s,{"object":"database","id":"22222222-2222-2222-2222-222222222222","title":[],"properties":{}}],"has_more":false}`, pageJSON)
	})
	accessor := testAccessor(t, mux)

	docs, err := accessor.List(context.Background(), driven.ListOptions{})

	require.NoError(t, err)
	require.Len(t, docs, 1, "non-page results are skipped")
	assert.Equal(t, "notion:11111111-1111-1111-1111-111111111111", docs[0].ID)
	assert.Equal(t, domain.SourceNotion, docs[0].Source)
	assert.Equal(t, "Auth Overview", docs[0].Title)
	assert.Empty(t, docs[0].Content)
	assert.Equal(t, "2024-01-03T03:04:05Z", docs[0].Metadata["last_edited_time"])
	assert.Equal(t, "https://www.notion.so/Auth-Overview-11111111111111111111111111111111", docs[0].Origin)
}

func TestAccessor_Fetch(t *testing.T) {
	t.Run("assembles page content from paginated blocks", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/pages/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, pageJSON)
		})
		mux.HandleFunc("/v1/blocks/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("start_cursor") == "cursor-2" {
				fmt.Fprint(w, `{"object":"list","results":[
					{"object":"block","id":"b3","type":"bulleted_list_item","bulleted_list_item":{"rich_text":[{"type":"text","text":{"content":"Rotate signing keys"},"plain_text":"Rotate signing keys"}]}},
					{"object":"block","id":"b4","type":"code","code":{"rich_text":[{"type":"text","text":{"content":"func Validate() {}"},"plain_text":"func Validate() {}"}],"language":"go"}},
					{"object":"block","id":"b5","type":"divider","divider":{}}
				],"has_more":false,"next_cursor":null}`)
				return
			}
			fmt.Fprint(w, `{"object":"list","results":[
				{"object":"block","id":"b1","type":"heading_1","heading_1":{"rich_text":[{"type":"text","text":{"content":"Auth Overview"},"plain_text":"Auth Overview"}]}},
				{"object":"block","id":"b2","type":"paragraph","paragraph":{"rich_text":[{"type":"text","text":{"content":"Sessions are issued as JWTs."},"plain_text":"Sessions are issued as JWTs."}]}}
			],"has_more":true,"next_cursor":"cursor-2"}`)
		})
		accessor := testAccessor(t, mux)

		doc, err := accessor.Fetch(context.Background(), "11111111-1111-1111-1111-111111111111")

		require.NoError(t, err)
		assert.Equal(t, "notion:11111111-1111-1111-1111-111111111111", doc.ID)
		assert.Equal(t, "Auth Overview", doc.Title)
		assert.Equal(t, "Auth Overview\nSessions are issued as JWTs.\nRotate signing keys\nfunc Validate() {}", doc.Content)
		assert.Equal(t, "11111111-1111-1111-1111-111111111111", doc.Metadata["page_id"])
		assert.Equal(t, "2024-01-02T03:04:05Z", doc.Metadata["created_time"])
	})

	t.Run("missing page maps to not found", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/pages/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find page"}`)
		})
		accessor := testAccessor(t, mux)

		_, err := accessor.Fetch(context.Background(), "deadbeef")

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
		assert.Contains(t, err.Error(), "deadbeef")
	})

	t.Run("empty reference fails before any call", func(t *testing.T) {
		accessor := testAccessor(t, http.NewServeMux())

		_, err := accessor.Fetch(context.Background(), "   ")

		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestAccessor_Search(t *testing.T) {
	t.Run("sends the query with the page filter", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "auth flow", body["query"])
			assert.Equal(t, float64(25), body["page_size"])

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"object":"list","results":[%s],"has_more":false}`, pageJSON)
		})
		accessor := testAccessor(t, mux)

		docs, err := accessor.Search(context.Background(), "auth flow", driven.SearchOptions{Limit: 25})

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Auth Overview", docs[0].Title)
	})

	t.Run("clamps page size to the API maximum", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(100), body["page_size"])

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"object":"list","results":[],"has_more":false}`)
		})
		accessor := testAccessor(t, mux)

		docs, err := accessor.Search(context.Background(), "anything", driven.SearchOptions{Limit: 500})

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("rejects empty query without calling the API", func(t *testing.T) {
		accessor := testAccessor(t, http.NewServeMux())

		_, err := accessor.Search(context.Background(), "   ", driven.SearchOptions{})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	})
}

func TestAccessor_QueryDatabase(t *testing.T) {
	t.Run("returns rows as page summaries", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/databases/", func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "33333333-3333-3333-3333-333333333333")

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(25), body["page_size"])

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"object":"list","results":[{"object":"page","id":"44444444-4444-4444-4444-444444444444","url":"https://www.notion.so/Row-One-44444444444444444444444444444444","properties":{"Name":{"id":"title","type":"title","title":[{"type":"text","text":{"content":"Row One"},"plain_text":"Row One"}]}}}],"has_more":false}`)
		})
		accessor := testAccessor(t, mux)

		docs, err := accessor.QueryDatabase(context.Background(), "33333333-3333-3333-3333-333333333333", driven.SearchOptions{Limit: 25})

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "notion:44444444-4444-4444-4444-444444444444", docs[0].ID)
		assert.Equal(t, "Row One", docs[0].Title)
	})

	t.Run("rejects empty database ID", func(t *testing.T) {
		accessor := testAccessor(t, http.NewServeMux())

		_, err := accessor.QueryDatabase(context.Background(), "", driven.SearchOptions{})

		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestAccessor_Retry(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"object":"error","status":429,"code":"rate_limited","message":"Rate limited"}`)
			return
		}
		fmt.Fprintf(w, `{"object":"list","results":[%s],"has_more":false}`, pageJSON)
	})
	accessor := testAccessor(t, mux)

	docs, err := accessor.List(context.Background(), driven.ListOptions{})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWrapError_RateLimited(t *testing.T) {
	err := wrapError(&notionapi.RateLimitedError{
		Message: "Retry-After header missing from Notion API response headers for 429 response",
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatus())
	assert.Equal(t, "rate_limited", apiErr.Code)
}

func TestPageTitle_Untitled(t *testing.T) {
	page := &notionapi.Page{ID: "55555555-5555-5555-5555-555555555555"}

	doc := pageDocument(page, "")

	assert.Equal(t, "Untitled", doc.Title)
	assert.Equal(t, "notion:55555555-5555-5555-5555-555555555555", doc.ID)
}
