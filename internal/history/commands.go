package history

import (
	"context"
	"database/sql"
	"fmt"
)

// Command is one row of the append-only commands log.
type Command struct {
	ID        int64
	Cmd       string
	CmdTpl    string
	SessionID string
	WhenRun   int64
	ExitCode  int
	Dir       string
	OldDir    string
}

// Append inserts one command row. IDs increase monotonically with
// insertion order and are the canonical temporal ordering; WhenRun may
// be coarse or absent in spirit (we require it be set by the caller)
// but is never relied on as more precise than id order.
func (d *DB) Append(ctx context.Context, c Command) (int64, error) {
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO commands (cmd, cmd_tpl, session_id, when_run, exit_code, dir, old_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.Cmd, c.CmdTpl, c.SessionID, c.WhenRun, c.ExitCode, nullableString(c.Dir), nullableString(c.OldDir))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	return id, nil
}

// LastCommands returns the most recent rows, ordered by id descending,
// optionally filtered to a single session. sessionID == "" means no
// session filter (global).
func (d *DB) LastCommands(ctx context.Context, sessionID string, limit, offset int) ([]Command, error) {
	var rows *sql.Rows
	var err error

	if sessionID == "" {
		rows, err = d.db.QueryContext(ctx, `
			SELECT id, cmd, cmd_tpl, session_id, when_run, exit_code, dir, old_dir
			FROM commands ORDER BY id DESC LIMIT ? OFFSET ?
		`, limit, offset)
	} else {
		rows, err = d.db.QueryContext(ctx, `
			SELECT id, cmd, cmd_tpl, session_id, when_run, exit_code, dir, old_dir
			FROM commands WHERE session_id = ? ORDER BY id DESC LIMIT ? OFFSET ?
		`, sessionID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	return scanCommands(rows)
}

func scanCommands(rows *sql.Rows) ([]Command, error) {
	var out []Command
	for rows.Next() {
		var c Command
		var cmdTpl, dir, oldDir sql.NullString
		if err := rows.Scan(&c.ID, &c.Cmd, &cmdTpl, &c.SessionID, &c.WhenRun, &c.ExitCode, &dir, &oldDir); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		c.CmdTpl = cmdTpl.String
		c.Dir = dir.String
		c.OldDir = oldDir.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
