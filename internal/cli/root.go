package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Authorization checkpoint for autonomous agents",
	Long: "Intercepts a proposed agent action before execution and renders one of\n" +
		"three verdicts: allow, block, or require human approval. Decisions are\n" +
		"persisted to a queryable audit log.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
