package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcflyhq/contextrank/internal/history"
	"github.com/mcflyhq/contextrank/internal/ingest"
	"github.com/mcflyhq/contextrank/internal/obslog"
	"github.com/mcflyhq/contextrank/internal/template"
)

var (
	addSession  string
	addDir      string
	addOldDir   string
	addExitCode int
)

var addCmd = &cobra.Command{
	Use:     "add <cmd>",
	Short:   "Record a command, if the ingestion filter accepts it",
	GroupID: groupCore,
	Args:    cobra.ExactArgs(1),
	RunE:    runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addSession, "session", "", "session identifier")
	addCmd.Flags().StringVar(&addDir, "dir", "", "working directory the command ran in")
	addCmd.Flags().StringVar(&addOldDir, "old-dir", "", "working directory before the command ran")
	addCmd.Flags().IntVar(&addExitCode, "exit-code", 0, "exit status of the command")
}

func runAdd(cmd *cobra.Command, args []string) error {
	logger := obslog.NewFromEnv()
	raw := args[0]

	dbPath, err := history.DefaultDBPath()
	if err != nil {
		return err
	}
	db, err := history.Open(dbPath)
	if err != nil {
		obslog.LogStorageUnavailable(logger, dbPath, err)
		return err
	}
	defer db.Close()

	ctx := context.Background()
	lastCommand := func(ctx context.Context) (string, error) {
		rows, err := db.LastCommands(ctx, "", 1, 0)
		if err != nil {
			return "", err
		}
		if len(rows) == 0 {
			return "", nil
		}
		return rows[0].Cmd, nil
	}

	ok, err := ingest.ShouldRecord(ctx, raw, lastCommand)
	if err != nil {
		return fmt.Errorf("ingestion filter: %w", err)
	}
	if !ok {
		obslog.LogIngestSkipped(logger, raw, "filtered")
		return nil
	}

	c := history.Command{
		Cmd:       raw,
		CmdTpl:    template.DefaultSimplifier(raw),
		SessionID: addSession,
		WhenRun:   time.Now().Unix(),
		ExitCode:  addExitCode,
		Dir:       addDir,
		OldDir:    addOldDir,
	}

	id, err := db.Append(ctx, c)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
