package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Short:   "Manage opaque shell session identifiers",
	GroupID: groupConfig,
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Mint a fresh session id for a shell integration to export",
	Long: `Prints a new opaque session id to stdout. The core never
inspects session id structure beyond equality, so shell integrations
are free to mint one however they like; this is a convenience for
integrations that want a collision-resistant default, exported once
per shell start (e.g. "export MCFLY_SESSION_ID=$(mcfly session new)").`,
	RunE: runSessionNew,
}

func init() {
	sessionCmd.AddCommand(sessionNewCmd)
}

func runSessionNew(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), uuid.NewString())
	return nil
}
