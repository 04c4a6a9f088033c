package main

import (
	"os"

	"github.com/custodia-labs/corra/internal/adapters/driving/cli"
)

func main() {
	// Errors are printed by the command tree; main only sets the exit code.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
