// Package obslog provides JSON-lines structured logging for the
// command-line tool.
package obslog

import (
	"io"
	"log/slog"
	"os"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr).
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo).
	Level slog.Level

	// Debug enables debug level logging (overrides Level).
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
		Debug:  false,
	}
}

// New creates a JSON-lines structured logger. Log lines look like:
//
//	{"ts":"2026-07-31T10:30:00Z","level":"INFO","msg":"view rebuilt","generation":42}
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}

// NewFromEnv creates a logger configured from environment variables.
// MCFLY_DEBUG=1 enables debug logging.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	if os.Getenv("MCFLY_DEBUG") == "1" {
		cfg.Debug = true
	}
	return New(cfg)
}

// LogIngestSkipped logs a command the ingestion filter chose not to
// record.
func LogIngestSkipped(logger *slog.Logger, cmd, reason string) {
	logger.Debug("command not recorded", "cmd", cmd, "reason", reason)
}

// LogViewRebuilt logs a successful scoring-engine rebuild.
func LogViewRebuilt(logger *slog.Logger, generation uint64) {
	logger.Info("view rebuilt", "generation", generation)
}

// LogViewBuildFailed logs a failed rebuild; the prior view remains in
// use.
func LogViewBuildFailed(logger *slog.Logger, err error) {
	logger.Warn("view build failed, prior view still in use", "error", err)
}

// LogStorageUnavailable logs a fatal storage-layer failure.
func LogStorageUnavailable(logger *slog.Logger, path string, err error) {
	logger.Error("storage unavailable", "path", path, "error", err)
}
