// Package testutil provides shared test helpers for building stores and catalogs.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/storage"
	"github.com/starford/shelf/internal/store"
)

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Store creates an in-memory store. The returned Memory persister lets tests
// inspect saves or inject failures.
func Store(t *testing.T, opts ...store.Option) (*store.Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	opts = append([]store.Option{store.WithLogger(Logger())}, opts...)
	return store.New(mem, opts...), mem
}

// Catalog creates an aggregator with the given providers and no cache.
func Catalog(t *testing.T, providers map[models.Category]search.Provider) *search.Aggregator {
	t.Helper()
	agg := search.NewAggregator(search.WithLogger(Logger()))
	for kind, p := range providers {
		agg.Register(kind, p)
	}
	return agg
}

// Results returns a provider that always answers with rs.
func Results(rs ...models.SearchResult) search.Provider {
	return search.ProviderFunc(func(context.Context, string) ([]models.SearchResult, error) {
		out := make([]models.SearchResult, len(rs))
		copy(out, rs)
		return out, nil
	})
}

// Failing returns a provider that always fails with err.
func Failing(err error) search.Provider {
	return search.ProviderFunc(func(context.Context, string) ([]models.SearchResult, error) {
		return nil, err
	})
}
