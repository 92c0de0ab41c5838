// Package rank is the scoring engine: it materializes, per unique
// command string, the seven feature values and the weighted rank into
// the transient contextual_commands view, over commands filtered by a
// time window.
package rank

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mcontext "github.com/mcflyhq/contextrank/internal/context"
	"github.com/mcflyhq/contextrank/internal/history"
	"github.com/mcflyhq/contextrank/internal/weights"
)

// ErrViewBuildFailed means the scoring engine aborted before
// materializing the new view; the prior view, if any, remains usable.
var ErrViewBuildFailed = fmt.Errorf("rank: view build failed")

// Clock returns the current Unix time in seconds. It is a field on
// Engine (rather than a bare time.Now() call) so tests can pin "now"
// for the recent-failure feature and the clock-anomaly check.
type Clock func() int64

// Engine rebuilds the contextual_commands view against one database.
type Engine struct {
	db      *history.DB
	weights weights.Weights
	clock   Clock
}

// New creates a scoring engine bound to db, using w as the linear
// combination coefficients.
func New(db *history.DB, w weights.Weights) *Engine {
	return &Engine{db: db, weights: w, clock: func() int64 { return time.Now().Unix() }}
}

// WithClock overrides the engine's clock; used by tests.
func (e *Engine) WithClock(c Clock) *Engine {
	e.clock = c
	return e
}

const buildTableDDL = `
CREATE TEMP TABLE contextual_commands_building (
  id INTEGER, cmd TEXT, cmd_tpl TEXT, session_id TEXT, when_run INTEGER,
  exit_code INTEGER, dir TEXT, old_dir TEXT,
  age_factor REAL, exit_factor REAL, recent_failure_factor REAL, dir_factor REAL,
  overlap_factor REAL, immediate_overlap_factor REAL, occurrences_factor REAL,
  rank REAL
)
`

const populateSQL = `
INSERT INTO contextual_commands_building
SELECT
  latest.id, latest.cmd, latest.cmd_tpl, latest.session_id, latest.when_run,
  latest.exit_code, latest.dir, latest.old_dir,
  agg.age_factor, agg.exit_factor, agg.recent_failure_factor, agg.dir_factor,
  agg.overlap_factor, agg.immediate_overlap_factor, agg.occurrences_factor,
  ? + agg.age_factor * ? + agg.exit_factor * ? + agg.recent_failure_factor * ? +
      agg.dir_factor * ? + agg.overlap_factor * ? + agg.immediate_overlap_factor * ? +
      agg.occurrences_factor * ? AS rank
FROM (
  SELECT
    c.cmd AS cmd,
    (? - MIN(c.when_run)) / ? AS age_factor,
    SUM(CASE WHEN c.exit_code = 0 THEN 1.0 ELSE 0.0 END) / COUNT(*) AS exit_factor,
    MAX(CASE WHEN c.exit_code = 1 AND ? - c.when_run < 120 THEN 1.0 ELSE 0.0 END) AS recent_failure_factor,
    SUM(CASE WHEN c.dir = ? THEN 1.0 ELSE 0.0 END) / ? AS dir_factor,
    SUM(
      (SELECT COUNT(DISTINCT c2.cmd_tpl) FROM commands c2
        WHERE c2.id >= c.id - ? AND c2.id < c.id AND c2.cmd_tpl IN (?, ?, ?)) / ?
    ) / ? AS overlap_factor,
    SUM(
      (SELECT COUNT(*) FROM commands c2 WHERE c2.id = c.id - 1 AND c2.cmd_tpl = ?)
    ) / ? AS immediate_overlap_factor,
    COUNT(*) / ? AS occurrences_factor
  FROM commands c
  WHERE c.when_run > ? AND c.when_run < ? AND c.id != ?
  GROUP BY c.cmd
) AS agg
JOIN commands latest
  ON latest.cmd = agg.cmd
  AND latest.id = (
    SELECT MAX(c3.id) FROM commands c3
    WHERE c3.cmd = agg.cmd AND c3.when_run > ? AND c3.when_run < ? AND c3.id != ?
  )
`

// RebuildView recomputes the scored view from scratch over the
// command log filtered by when_run in (startTime, endTime). A zero
// endTime defaults to now; start defaults to 0. The view swap is
// atomic: the template window and global aggregates are read first,
// then building, dropping and renaming the view run in one
// transaction, so a failure partway through leaves the previous view
// exactly as it was.
func (e *Engine) RebuildView(ctx context.Context, currentDir, sessionID string, startTime, endTime int64) error {
	now := e.clock()
	if now < 0 {
		return history.ErrClockAnomaly
	}
	if endTime == 0 {
		endTime = now
	}

	window, err := mcontext.BuildWindow(ctx, e.db, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}

	raw := e.db.Raw()

	whenRunMin, whenRunMax, sentinelID, hasRows, err := globalAggregates(ctx, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}
	if whenRunMin == whenRunMax {
		whenRunMin -= 3600
	}
	spread := float64(whenRunMax - whenRunMin)

	maxOccurrences, err := maxOccurrencesOf(ctx, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}

	tx, err := raw.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS contextual_commands_building`); err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}
	if _, err := tx.ExecContext(ctx, buildTableDDL); err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}

	if hasRows && maxOccurrences > 0 {
		w := e.weights
		args := []any{
			w.Offset, w.Age, w.Exit, w.RecentFailure, w.Dir, w.Overlap, w.ImmediateOverlap, w.Occurrences,
			whenRunMax, spread,
			now,
			currentDir, float64(maxOccurrences),
			mcontext.Lookback, window[0], window[1], window[2], float64(mcontext.Lookback),
			float64(maxOccurrences),
			window[0], float64(maxOccurrences),
			float64(maxOccurrences),
			startTime, endTime, sentinelID,
			startTime, endTime, sentinelID,
		}
		if _, err := tx.ExecContext(ctx, populateSQL, args...); err != nil {
			return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS contextual_commands`); err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE contextual_commands_building RENAME TO contextual_commands`); err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_contextual_commands_id ON contextual_commands(id)`); err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrViewBuildFailed, err)
	}

	e.db.BumpViewGeneration()
	return nil
}

// globalAggregates returns the min/max when_run and the globally
// smallest id (the sentinel) across the entire unfiltered log, along
// with whether the log has any rows at all.
func globalAggregates(ctx context.Context, raw *sql.DB) (min, max, sentinelID int64, hasRows bool, err error) {
	var minN, maxN, sentN sql.NullInt64
	row := raw.QueryRowContext(ctx, `SELECT MIN(when_run), MAX(when_run), MIN(id) FROM commands`)
	if err := row.Scan(&minN, &maxN, &sentN); err != nil {
		return 0, 0, 0, false, err
	}
	if !minN.Valid {
		return 0, 0, 0, false, nil
	}
	return minN.Int64, maxN.Int64, sentN.Int64, true, nil
}

// maxOccurrencesOf returns the largest count of rows sharing a single
// cmd value across the full, unfiltered log.
func maxOccurrencesOf(ctx context.Context, raw *sql.DB) (int64, error) {
	var max sql.NullInt64
	row := raw.QueryRowContext(ctx, `SELECT MAX(c) FROM (SELECT COUNT(*) AS c FROM commands GROUP BY cmd)`)
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	return max.Int64, nil
}
