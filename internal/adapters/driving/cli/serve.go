package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/corra/internal/adapters/driving/rpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON-RPC tool server on stdio",
	Long: `Start the line-delimited JSON-RPC 2.0 server.

Requests are read from stdin, one JSON object per line, and responses
are written to stdout in arrival order. Logging goes to stderr so the
wire stays clean.

Methods:
  list_tools   List the tool catalogue
  call_tool    Invoke a tool: {"name": ..., "arguments": {...}}
  ping         Liveness check, returns "pong"`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	server := rpc.NewServer(toolService, cmd.InOrStdin(), cmd.OutOrStdout())
	return server.Run(cmd.Context())
}
