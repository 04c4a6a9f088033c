package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalogue",
	Long:  `Prints the tools callable through the JSON-RPC and MCP servers.`,
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "output the catalogue as JSON")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	specs := toolService.ListTools()

	if toolsJSON {
		data, err := json.MarshalIndent(specs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal catalogue: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, spec := range specs {
		cmd.Printf("  %-26s %s\n", spec.Name, spec.Description)
	}
	return nil
}
