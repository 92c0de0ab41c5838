// Package retrieve is the read path exposed to callers: a substring
// search over the scored view, memoized by an LRU cache keyed on the
// query and the view generation so a rebuild invalidates stale
// entries without ever having to walk or flush the cache.
package retrieve

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcflyhq/contextrank/internal/history"
)

// DefaultLimit is how many rows a search returns when the caller does
// not specify one.
const DefaultLimit = 10

// defaultCacheSize bounds how many distinct (substring, limit)
// queries are memoized at once.
const defaultCacheSize = 256

type cacheKey struct {
	substring  string
	limit      int
	generation uint64
}

// Retriever answers substring queries against one database's scored
// view, caching results until the next successful RebuildView.
type Retriever struct {
	db    *history.DB
	cache *lru.Cache[cacheKey, []history.ScoredCommand]
}

// New builds a Retriever over db. Cache size is fixed; callers needing
// more control should query db.QueryView directly.
func New(db *history.DB) (*Retriever, error) {
	cache, err := lru.New[cacheKey, []history.ScoredCommand](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("retrieve: build cache: %w", err)
	}
	return &Retriever{db: db, cache: cache}, nil
}

// Search returns up to limit scored rows whose cmd contains
// substring, reusing a cached result if the view has not been rebuilt
// since it was computed. limit <= 0 means DefaultLimit.
func (r *Retriever) Search(ctx context.Context, substring string, limit int) ([]history.ScoredCommand, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	key := cacheKey{substring: substring, limit: limit, generation: r.db.ViewGeneration()}
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	rows, err := r.db.QueryView(ctx, substring, limit)
	if err != nil {
		return nil, err
	}

	r.cache.Add(key, rows)
	return rows, nil
}
