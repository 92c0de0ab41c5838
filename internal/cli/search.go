package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mcflyhq/contextrank/internal/history"
	"github.com/mcflyhq/contextrank/internal/obslog"
	"github.com/mcflyhq/contextrank/internal/rank"
	"github.com/mcflyhq/contextrank/internal/retrieve"
	"github.com/mcflyhq/contextrank/internal/weights"
)

var (
	searchSession string
	searchDir     string
	searchLimit   int
	searchJSON    bool
	searchHuman   bool
)

var searchCmd = &cobra.Command{
	Use:     "search <substring>",
	Short:   "Rank and search command history by context",
	GroupID: groupCore,
	Args:    cobra.ExactArgs(1),
	RunE:    runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchSession, "session", "", "current session identifier")
	searchCmd.Flags().StringVar(&searchDir, "dir", "", "current working directory")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", retrieve.DefaultLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchHuman, "human", false, "annotate plain-text results with a relative last-run time")
}

type searchResult struct {
	Cmd   string  `json:"cmd"`
	Dir   string  `json:"dir,omitempty"`
	Rank  float64 `json:"rank"`
	Count int     `json:"occurrences,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := obslog.NewFromEnv()
	substring := args[0]

	dbPath, err := history.DefaultDBPath()
	if err != nil {
		return err
	}
	db, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	weightsPath, err := weights.DefaultPath()
	if err != nil {
		return err
	}
	w, err := weights.Load(weightsPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	dir := searchDir
	if dir == "" {
		if wd, wdErr := os.Getwd(); wdErr == nil {
			dir = wd
		}
	}

	engine := rank.New(db, w)
	if err := engine.RebuildView(ctx, dir, searchSession, 0, 0); err != nil {
		obslog.LogViewBuildFailed(logger, err)
		return fmt.Errorf("rebuild view: %w", err)
	}
	obslog.LogViewRebuilt(logger, db.ViewGeneration())

	retriever, err := retrieve.New(db)
	if err != nil {
		return err
	}

	rows, err := retriever.Search(ctx, substring, searchLimit)
	if err != nil {
		return err
	}

	if searchJSON {
		out := make([]searchResult, len(rows))
		for i, r := range rows {
			out[i] = searchResult{Cmd: r.Cmd, Dir: r.Dir, Rank: r.Rank}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	}

	// A relative timestamp only earns its keep when a human is reading
	// the output live; a piped consumer gets the bare command so
	// scripts never have to strip decoration back out.
	annotate := searchHuman && isatty.IsTerminal(os.Stdout.Fd())

	for _, r := range rows {
		if annotate {
			fmt.Fprintf(cmd.OutOrStdout(), "%-60s  %s\n", r.Cmd, humanize.Time(time.Unix(r.WhenRun, 0)))
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), r.Cmd)
	}
	return nil
}
