// Package cli wires the cobra command surface: add, search, weights,
// and session.
package cli

import (
	"github.com/spf13/cobra"
)

const (
	groupCore   = "core"
	groupConfig = "config"
)

var rootCmd = &cobra.Command{
	Use:   "mcfly",
	Short: "contextual ranking for your shell history",
	Long: `mcfly ranks your shell history by context, not just recency:
the directory you're in, what you just ran, and whether it worked.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Core Commands:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(sessionCmd)
}
