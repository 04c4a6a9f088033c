package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corra/internal/core/ports/driving"
)

func TestServeCmd_Use(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
}

func TestServeCmd_AnswersOverStdio(t *testing.T) {
	restore := swapToolService(&mockTools{specs: []driving.ToolSpec{
		{Name: "agent.query", Description: "Query the RAG index and generate an answer"},
	}})
	defer restore()

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"list_tools"}`,
	}, "\n") + "\n"

	buf := new(bytes.Buffer)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"serve"})
	defer func() {
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":"pong"}`, lines[0])
	assert.Contains(t, lines[1], `"agent.query"`)
}

func TestMCPCmd_Use(t *testing.T) {
	assert.Equal(t, "mcp", mcpCmd.Use)
}

func TestMCPCmd_HasPortFlag(t *testing.T) {
	flag := mcpCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}
