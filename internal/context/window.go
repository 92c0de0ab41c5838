// Package context derives the recent-template window used by the
// scoring engine's overlap features: the last few command templates
// observed in the current session, falling back to the global tail.
package context

import (
	"context"

	"github.com/mcflyhq/contextrank/internal/history"
)

// Lookback is the fixed window size: how many preceding templates
// define "the current context".
const Lookback = 3

// Store is the subset of the storage layer the context collector
// needs: the most recent rows, optionally scoped to a session.
type Store interface {
	LastCommands(ctx context.Context, sessionID string, limit, offset int) ([]history.Command, error)
}

// BuildWindow produces the fixed-length window of recent templates:
//  1. the last Lookback templates from sessionID, newest-first;
//  2. if fewer than Lookback exist, fall back to the last Lookback
//     globally;
//  3. if still fewer, pad the remaining slots with "".
//
// The result is always [t0, t1, t2] where t0 is the immediate
// predecessor.
func BuildWindow(ctx context.Context, store Store, sessionID string) ([Lookback]string, error) {
	var window [Lookback]string

	templates, err := templatesFor(ctx, store, sessionID)
	if err != nil {
		return window, err
	}

	if len(templates) < Lookback && sessionID != "" {
		globalTemplates, err := templatesFor(ctx, store, "")
		if err != nil {
			return window, err
		}
		templates = globalTemplates
	}

	for i := 0; i < Lookback; i++ {
		if i < len(templates) {
			window[i] = templates[i]
		}
	}

	return window, nil
}

func templatesFor(ctx context.Context, store Store, sessionID string) ([]string, error) {
	rows, err := store.LastCommands(ctx, sessionID, Lookback, 0)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CmdTpl
	}
	return out, nil
}
