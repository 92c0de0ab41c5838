// Package ingest decides whether a newly observed command should be
// appended to the history log, suppressing noise, duplicates, and
// privacy-marked entries.
package ingest

import (
	"context"
	"strings"
)

// suggestionMarker prefixes commands that this system itself produced
// as a suggestion already echoed into the shell; recording them back
// would create a feedback loop.
const suggestionMarker = "#mcfly:"

// ignoreList is the fixed set of commands never worth recording: they
// carry no information about what the user is trying to do.
var ignoreList = map[string]struct{}{
	"pwd":          {},
	"ls":           {},
	"cd":           {},
	"cd ..":        {},
	"clear":        {},
	"history":      {},
	"mcfly search": {},
}

// LastCommandLookup returns the cmd string of the most recently
// recorded command, globally across all sessions, or "" if the log is
// empty. It is the one piece of storage state ShouldRecord needs.
type LastCommandLookup func(ctx context.Context) (string, error)

// ShouldRecord reports whether cmd should be appended to the log.
// Matching is case-sensitive throughout. It returns false when any of:
//  1. cmd is empty.
//  2. cmd begins with the suggestion marker.
//  3. cmd begins with a single leading space (shell's own
//     "omit from history" convention).
//  4. cmd exactly matches one of the fixed ignore-list entries.
//  5. cmd exactly matches the most recently recorded command, globally
//     (suppresses a new terminal window replaying the last line).
func ShouldRecord(ctx context.Context, cmd string, lastCommand LastCommandLookup) (bool, error) {
	if cmd == "" {
		return false, nil
	}
	if strings.HasPrefix(cmd, suggestionMarker) {
		return false, nil
	}
	if strings.HasPrefix(cmd, " ") {
		return false, nil
	}
	if _, ignored := ignoreList[cmd]; ignored {
		return false, nil
	}

	last, err := lastCommand(ctx)
	if err != nil {
		return false, err
	}
	if last != "" && cmd == last {
		return false, nil
	}

	return true, nil
}
