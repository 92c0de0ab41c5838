// Package history is the storage layer: it owns the embedded SQLite
// handle holding the append-only commands log and the ephemeral scored
// view, and is responsible for schema creation and migrations.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// DB wraps the SQLite connection backing one command log.
type DB struct {
	db     *sql.DB
	lock   *lockFile
	mu     sync.RWMutex // guards gen and closed
	gen    uint64       // bumped every successful RebuildView, for cache invalidation
	closed bool
}

// DefaultDBPath returns the default database path (~/.mcfly/history.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve home directory: %v", ErrStorageUnavailable, err)
	}
	return filepath.Join(home, ".mcfly", "history.db"), nil
}

// Open opens or creates the database at path, applies schema
// migrations idempotently, and returns a ready handle. It fails with
// ErrStorageUnavailable if the path is unwritable and ErrSchemaFailure
// if migrations cannot be applied; both are meant to be treated as
// fatal by the caller.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory %q: %v", ErrStorageUnavailable, dir, err)
		}
	}

	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		lock.release()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		lock.release()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	store := &DB{db: sqlDB, lock: lock}
	if err := store.migrate(context.Background()); err != nil {
		sqlDB.Close()
		lock.release()
		return nil, fmt.Errorf("%w: %v", ErrSchemaFailure, err)
	}

	return store, nil
}

// Close releases the underlying database handle and advisory lock. It
// is safe to call Close multiple times.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var dbErr error
	if d.db != nil {
		dbErr = d.db.Close()
	}
	lockErr := d.lock.release()
	if dbErr != nil {
		return dbErr
	}
	return lockErr
}

// Raw exposes the underlying *sql.DB for use by the scoring engine,
// which needs to run a multi-statement grouped query that does not fit
// this package's narrower public surface.
func (d *DB) Raw() *sql.DB {
	return d.db
}

const migrationV1 = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INTEGER PRIMARY KEY,
  applied_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS commands (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  cmd         TEXT NOT NULL,
  cmd_tpl     TEXT,
  session_id  TEXT NOT NULL,
  when_run    INTEGER NOT NULL,
  exit_code   INTEGER NOT NULL,
  dir         TEXT,
  old_dir     TEXT
);

CREATE INDEX IF NOT EXISTS idx_commands_cmd ON commands(cmd);
CREATE INDEX IF NOT EXISTS idx_commands_session_id ON commands(session_id);
CREATE INDEX IF NOT EXISTS idx_commands_dir ON commands(dir);
`

// migrate applies pending schema migrations in order, recording each
// applied version in schema_migrations so re-running Open is a no-op.
func (d *DB) migrate(ctx context.Context) error {
	// schema_migrations itself may not exist yet on a brand new file;
	// check sqlite_master rather than querying it speculatively.
	currentVersion := 0
	hasMigrationsTable, err := d.tableExists(ctx, "schema_migrations")
	if err != nil {
		return err
	}
	if hasMigrationsTable {
		row := d.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
		if err := row.Scan(&currentVersion); err != nil {
			return err
		}
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{version: 1, sql: migrationV1},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := d.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d: %w", m.version, err)
		}
		if _, err := d.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO schema_migrations (version, applied_ts) VALUES (?, strftime('%s','now'))`,
			m.version,
		); err != nil {
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// tableExists reports whether name is a table in the database's own
// sqlite_master catalog, so callers never have to speculatively query
// a table that might not exist yet and sniff the driver's error text.
func (d *DB) tableExists(ctx context.Context, name string) (bool, error) {
	var found string
	row := d.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name)
	if err := row.Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
