package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockTools implements driving.Tools for testing.
type mockTools struct {
	specs    []driving.ToolSpec
	result   any
	err      error
	calls    []string
	lastArgs map[string]any
}

func (m *mockTools) ListTools() []driving.ToolSpec {
	return m.specs
}

func (m *mockTools) CallTool(_ context.Context, name string, args map[string]any) (any, error) {
	m.calls = append(m.calls, name)
	m.lastArgs = args
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// --- Test helpers ---

// wireResponse mirrors one response line for assertions.
type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *wireError      `json:"error"`
}

func runServer(t *testing.T, tools driving.Tools, input string) []wireResponse {
	t.Helper()

	var out bytes.Buffer
	server := NewServer(tools, strings.NewReader(input), &out)
	require.NoError(t, server.Run(context.Background()))

	var responses []wireResponse
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		var resp wireResponse
		require.NoError(t, json.Unmarshal([]byte(line), &resp), "line %q", line)
		assert.Equal(t, "2.0", resp.JSONRPC)
		responses = append(responses, resp)
	}
	return responses
}

// --- Tests ---

func TestServer_Run_ListTools(t *testing.T) {
	tools := &mockTools{specs: []driving.ToolSpec{
		{Name: "notion.list_pages", Description: "List Notion pages"},
		{Name: "agent.query", Description: "Query the RAG index and generate an answer"},
	}}

	responses := runServer(t, tools, `{"jsonrpc":"2.0","id":1,"method":"list_tools"}`+"\n")

	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)
	assert.Equal(t, "1", string(responses[0].ID))

	var specs []driving.ToolSpec
	require.NoError(t, json.Unmarshal(responses[0].Result, &specs))
	assert.Equal(t, tools.specs, specs)
}

func TestServer_Run_CallTool(t *testing.T) {
	tools := &mockTools{result: map[string]any{"answer": "42"}}

	responses := runServer(t, tools,
		`{"jsonrpc":"2.0","id":7,"method":"call_tool","params":{"name":"agent.query","arguments":{"query":"q","page_size":3}}}`+"\n")

	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)
	assert.Equal(t, []string{"agent.query"}, tools.calls)
	assert.Equal(t, map[string]any{"query": "q", "page_size": float64(3)}, tools.lastArgs)
	assert.JSONEq(t, `{"answer":"42"}`, string(responses[0].Result))
}

func TestServer_Run_Ping(t *testing.T) {
	responses := runServer(t, &mockTools{}, `{"jsonrpc":"2.0","id":"p1","method":"ping"}`+"\n")

	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)
	assert.Equal(t, `"pong"`, string(responses[0].Result))
}

func TestServer_Run_UnknownMethod(t *testing.T) {
	responses := runServer(t, &mockTools{}, `{"jsonrpc":"2.0","id":2,"method":"shutdown"}`+"\n")

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeMethodNotFound, responses[0].Error.Code)
	assert.Contains(t, responses[0].Error.Message, "shutdown")
}

func TestServer_Run_MalformedLine_Continues(t *testing.T) {
	tools := &mockTools{}
	input := "{this is not json\n" +
		`{"jsonrpc":"2.0","id":5,"method":"ping"}` + "\n"

	responses := runServer(t, tools, input)

	require.Len(t, responses, 2)

	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeParse, responses[0].Error.Code)
	assert.Equal(t, "null", string(responses[0].ID))

	require.Nil(t, responses[1].Error)
	assert.Equal(t, "5", string(responses[1].ID))
	assert.Equal(t, `"pong"`, string(responses[1].Result))
}

func TestServer_Run_BlankLines_Skipped(t *testing.T) {
	input := "\n   \n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n\n"

	responses := runServer(t, &mockTools{}, input)

	assert.Len(t, responses, 1)
}

func TestServer_Run_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"wrong version", `{"jsonrpc":"1.0","id":3,"method":"ping"}`},
		{"missing version", `{"id":3,"method":"ping"}`},
		{"missing method", `{"jsonrpc":"2.0","id":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := runServer(t, &mockTools{}, tt.line+"\n")

			require.Len(t, responses, 1)
			require.NotNil(t, responses[0].Error)
			assert.Equal(t, codeInvalidRequest, responses[0].Error.Code)
		})
	}
}

func TestServer_Run_IDPreserved(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"number", `42`, `42`},
		{"string", `"req-abc"`, `"req-abc"`},
		{"null", `null`, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := `{"jsonrpc":"2.0","id":` + tt.id + `,"method":"ping"}`
			responses := runServer(t, &mockTools{}, line+"\n")

			require.Len(t, responses, 1)
			assert.Equal(t, tt.want, string(responses[0].ID))
		})
	}
}

func TestServer_Run_MissingID_RespondsNull(t *testing.T) {
	responses := runServer(t, &mockTools{}, `{"jsonrpc":"2.0","method":"ping"}`+"\n")

	require.Len(t, responses, 1)
	assert.Equal(t, "null", string(responses[0].ID))
}

func TestServer_Run_CallTool_MissingName(t *testing.T) {
	tools := &mockTools{}

	responses := runServer(t, tools,
		`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"arguments":{}}}`+"\n")

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
	assert.Empty(t, tools.calls, "no tool may run without a name")
}

func TestServer_Run_CallTool_BadParams(t *testing.T) {
	responses := runServer(t, &mockTools{},
		`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":[1,2]}`+"\n")

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
}

func TestServer_Run_CallTool_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{
			"validation",
			&domain.ValidationError{Field: "page_id", Reason: "required"},
			codeInvalidParams,
		},
		{
			"empty query sentinel",
			domain.ErrEmptyQuery,
			codeInvalidParams,
		},
		{
			"empty document sentinel",
			domain.ErrEmptyDocument,
			codeInvalidParams,
		},
		{
			"not found",
			&domain.NotFoundError{Reference: "p1"},
			codeNotFound,
		},
		{
			"external call",
			&domain.ExternalCallError{SourceKey: "notion", Attempts: 5, LastCause: errors.New("503")},
			codeExternalCall,
		},
		{
			"pipeline",
			&domain.PipelineError{Stage: "embed", Cause: errors.New("boom")},
			codePipeline,
		},
		{
			"pipeline wrapping external call",
			&domain.PipelineError{
				Stage: "reason",
				Cause: &domain.ExternalCallError{SourceKey: "openai", Attempts: 5, LastCause: errors.New("503")},
			},
			codePipeline,
		},
		{
			"anything else",
			errors.New("unexpected"),
			codeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := &mockTools{err: tt.err}

			responses := runServer(t, tools,
				`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"name":"notion.fetch_page"}}`+"\n")

			require.Len(t, responses, 1)
			require.NotNil(t, responses[0].Error)
			assert.Equal(t, tt.code, responses[0].Error.Code)
			assert.Equal(t, tt.err.Error(), responses[0].Error.Message)
		})
	}
}

func TestServer_Run_ResponsesInOrder(t *testing.T) {
	tools := &mockTools{result: "ok"}
	input := `{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"name":"a"}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","id":3,"method":"call_tool","params":{"name":"b"}}` + "\n"

	responses := runServer(t, tools, input)

	require.Len(t, responses, 3)
	assert.Equal(t, "1", string(responses[0].ID))
	assert.Equal(t, "2", string(responses[1].ID))
	assert.Equal(t, "3", string(responses[2].ID))
	assert.Equal(t, []string{"a", "b"}, tools.calls)
}

func TestServer_Run_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := NewServer(&mockTools{}, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &bytes.Buffer{})
	err := server.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestServer_Run_EmptyStream(t *testing.T) {
	var out bytes.Buffer
	server := NewServer(&mockTools{}, strings.NewReader(""), &out)

	require.NoError(t, server.Run(context.Background()))
	assert.Empty(t, out.String())
}
