package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the pulseai binary.
var rootCmd = &cobra.Command{
	Use:   "pulseai",
	Short: "PulseAI personal finance backend",
	Long: `PulseAI personal finance backend. Subcommands:

	pulseai server     start the HTTP API server
	pulseai migrate    run database migrations
`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
