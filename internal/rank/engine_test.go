package rank

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mcflyhq/contextrank/internal/history"
	"github.com/mcflyhq/contextrank/internal/weights"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func appendCmd(t *testing.T, db *history.DB, c history.Command) int64 {
	t.Helper()
	id, err := db.Append(context.Background(), c)
	require.NoError(t, err)
	return id
}

func TestRebuildViewOnSingleRowLogEmitsNothing(t *testing.T) {
	db := openTestDB(t)
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1000, ExitCode: 0, Dir: "/a"})

	e := New(db, weights.Default()).WithClock(func() int64 { return 2000 })
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))

	rows, err := db.QueryView(context.Background(), "make", 10)
	require.NoError(t, err)
	require.Empty(t, rows, "the sole row is the sentinel and must not appear in the view")
}

func TestRebuildViewEmitsSecondOccurrence(t *testing.T) {
	db := openTestDB(t)
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1000, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1500, ExitCode: 0, Dir: "/a"})

	e := New(db, weights.Default()).WithClock(func() int64 { return 2000 })
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))

	rows, err := db.QueryView(context.Background(), "make", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Greater(t, rows[0].OccurrencesFactor, 0.0)
}

func TestRebuildViewDirAffinity(t *testing.T) {
	db := openTestDB(t)
	// a sentinel row of a distinct command so excluding it doesn't
	// touch the "make" group under test.
	appendCmd(t, db, history.Command{Cmd: "ls", CmdTpl: "ls", SessionID: "s1", WhenRun: 500, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1000, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1500, ExitCode: 0, Dir: "/b"})

	e := New(db, weights.Default()).WithClock(func() int64 { return 2000 })
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))

	rows, err := db.QueryView(context.Background(), "make", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.InDelta(t, 0.5, rows[0].DirFactor, 1e-9)
}

func TestRebuildViewRecentFailurePenalizesAfterward(t *testing.T) {
	db := openTestDB(t)
	appendCmd(t, db, history.Command{Cmd: "ls", CmdTpl: "ls", SessionID: "s1", WhenRun: 500, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "deploy", CmdTpl: "deploy", SessionID: "s1", WhenRun: 1000, ExitCode: 1, Dir: "/a"})

	e := New(db, weights.Default()).WithClock(func() int64 { return 1050 })
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))

	rows, err := db.QueryView(context.Background(), "deploy", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1.0, rows[0].RecentFailureFactor)
}

func TestRebuildViewRecentFailureOnlyForExitCodeOne(t *testing.T) {
	db := openTestDB(t)
	appendCmd(t, db, history.Command{Cmd: "ls", CmdTpl: "ls", SessionID: "s1", WhenRun: 500, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "deploy", CmdTpl: "deploy", SessionID: "s1", WhenRun: 1000, ExitCode: 127, Dir: "/a"})

	e := New(db, weights.Default()).WithClock(func() int64 { return 1050 })
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))

	rows, err := db.QueryView(context.Background(), "deploy", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 0.0, rows[0].RecentFailureFactor, "only exit code 1 counts as a recent failure, not every non-zero code")
}

func TestRebuildViewImmediateOverlap(t *testing.T) {
	db := openTestDB(t)
	appendCmd(t, db, history.Command{Cmd: "sentinel", CmdTpl: "sentinel", SessionID: "s1", WhenRun: 400, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "git add .", CmdTpl: "git add <path>", SessionID: "s1", WhenRun: 500, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "git commit", CmdTpl: "git commit", SessionID: "s1", WhenRun: 600, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "git add .", CmdTpl: "git add <path>", SessionID: "s1", WhenRun: 700, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "git commit", CmdTpl: "git commit", SessionID: "s1", WhenRun: 800, ExitCode: 0, Dir: "/a"})

	e := New(db, weights.Default()).WithClock(func() int64 { return 900 })
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))

	// The window's t0 is the newest template, "git commit"; the second
	// "git add ." (id 4) directly follows a "git commit" (id 3).
	rows, err := db.QueryView(context.Background(), "git add", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Greater(t, rows[0].ImmediateOverlapFactor, 0.0, "git add . follows git commit, the window's t0, in this log")
}

func TestRebuildViewOnEmptyLogProducesEmptyView(t *testing.T) {
	db := openTestDB(t)
	e := New(db, weights.Default())
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))

	rows, err := db.QueryView(context.Background(), "", 10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestRebuildViewRejectsClockBeforeEpoch(t *testing.T) {
	db := openTestDB(t)
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1000, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1500, ExitCode: 0, Dir: "/a"})

	e := New(db, weights.Default()).WithClock(func() int64 { return -1 })
	err := e.RebuildView(context.Background(), "/a", "s1", 0, 0)
	require.ErrorIs(t, err, history.ErrClockAnomaly)

	// the prior (empty) view is untouched by the failed rebuild.
	rows, qerr := db.QueryView(context.Background(), "make", 10)
	require.NoError(t, qerr)
	require.Empty(t, rows)
}

func TestRebuildViewBumpsGeneration(t *testing.T) {
	db := openTestDB(t)
	appendCmd(t, db, history.Command{Cmd: "ls", CmdTpl: "ls", SessionID: "s1", WhenRun: 500, ExitCode: 0, Dir: "/a"})
	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1000, ExitCode: 0, Dir: "/a"})

	e := New(db, weights.Default()).WithClock(func() int64 { return 2000 })
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))
	gen1 := db.ViewGeneration()

	appendCmd(t, db, history.Command{Cmd: "make", CmdTpl: "make", SessionID: "s1", WhenRun: 1500, ExitCode: 0, Dir: "/a"})
	require.NoError(t, e.RebuildView(context.Background(), "/a", "s1", 0, 0))
	gen2 := db.ViewGeneration()

	require.Greater(t, gen2, gen1)
}
