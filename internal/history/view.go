package history

import (
	"context"
	"database/sql"
	"fmt"
)

// ScoredCommand is one row of the transient contextual_commands view:
// the latest identifying attributes for a distinct cmd, its seven
// feature values, and the combined rank.
type ScoredCommand struct {
	Command
	AgeFactor              float64
	ExitFactor             float64
	RecentFailureFactor    float64
	DirFactor              float64
	OverlapFactor          float64
	ImmediateOverlapFactor float64
	OccurrencesFactor      float64
	Rank                   float64
}

// ViewGeneration returns a counter that increases every time
// RebuildView successfully swaps in a new scored view. Callers may use
// it as a cache key component: an unchanged generation means an
// unchanged view.
func (d *DB) ViewGeneration() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gen
}

// BumpViewGeneration is called by internal/rank after a successful
// RebuildView to mark that a new view has been materialized. It lives
// in this package (rather than being done implicitly inside
// QueryView) because the view-build transaction and the query are
// separate operations that run from different packages.
func (d *DB) BumpViewGeneration() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	return d.gen
}

// QueryView returns up to limit scored rows whose cmd contains
// substring (case-sensitive), ordered by rank descending, ties broken
// by larger id first. Before the scoring engine's first successful
// RebuildView there is no view and QueryView returns no rows; a stale
// view produces stale ranks but never undefined behavior.
func (d *DB) QueryView(ctx context.Context, substring string, limit int) ([]ScoredCommand, error) {
	var viewName string
	err := d.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_temp_master WHERE type = 'table' AND name = 'contextual_commands'`).Scan(&viewName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, cmd, cmd_tpl, session_id, when_run, exit_code, dir, old_dir,
		       age_factor, exit_factor, recent_failure_factor, dir_factor,
		       overlap_factor, immediate_overlap_factor, occurrences_factor, rank
		FROM contextual_commands
		WHERE instr(cmd, ?) > 0
		ORDER BY rank DESC, id DESC
		LIMIT ?
	`, substring, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []ScoredCommand
	for rows.Next() {
		var sc ScoredCommand
		var cmdTpl, dir, oldDir sql.NullString
		if err := rows.Scan(
			&sc.ID, &sc.Cmd, &cmdTpl, &sc.SessionID, &sc.WhenRun, &sc.ExitCode, &dir, &oldDir,
			&sc.AgeFactor, &sc.ExitFactor, &sc.RecentFailureFactor, &sc.DirFactor,
			&sc.OverlapFactor, &sc.ImmediateOverlapFactor, &sc.OccurrencesFactor, &sc.Rank,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		sc.CmdTpl = cmdTpl.String
		sc.Dir = dir.String
		sc.OldDir = oldDir.String
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return out, nil
}
