// Package search queries external catalogs and normalizes their results.
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/starford/shelf/internal/metrics"
	"github.com/starford/shelf/internal/models"
)

// FailureNotice is the user-facing message for a degraded search.
const FailureNotice = "Failed to search. Please try again."

// ErrUnknownKind is returned for a kind with no registered provider.
var ErrUnknownKind = errors.New("search: unknown kind")

// Provider searches one external catalog.
type Provider interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query string) ([]models.SearchResult, error)

// Search implements Provider.
func (f ProviderFunc) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return f(ctx, query)
}

// Request is one search call.
type Request struct {
	Query string
	Kind  models.Category
}

// Response carries the results of one search. Degraded is true when the
// provider failed and Results is empty because of it.
type Response struct {
	Results  []models.SearchResult
	Degraded bool
	// Stale and Seq are only set by Session.
	Stale bool
	Seq   uint64
}

// Aggregator dispatches a query to the provider registered for its kind.
type Aggregator struct {
	mu        sync.RWMutex
	providers map[models.Category]Provider

	cache   *cache.Cache // nil when disabled
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCacheTTL caches successful responses for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Aggregator) {
		if ttl <= 0 {
			a.cache = nil
			return
		}
		a.cache = cache.New(ttl, 2*ttl)
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithMetrics records search outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithProvider registers p for kind.
func WithProvider(kind models.Category, p Provider) Option {
	return func(a *Aggregator) { a.providers[kind] = p }
}

// NewAggregator returns an aggregator with no providers and no cache.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		providers: make(map[models.Category]Provider),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Register adds or replaces the provider for kind.
func (a *Aggregator) Register(kind models.Category, p Provider) {
	a.mu.Lock()
	a.providers[kind] = p
	a.mu.Unlock()
}

// Kinds returns the kinds that have a provider.
func (a *Aggregator) Kinds() []models.Category {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]models.Category, 0, len(a.providers))
	for k := range a.providers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Search returns the normalized results for query, or an empty slice on
// any failure. It never returns nil.
func (a *Aggregator) Search(ctx context.Context, query string, kind models.Category) []models.SearchResult {
	resp, err := a.Do(ctx, Request{Query: query, Kind: kind})
	if err != nil {
		a.logger.Warn("search: rejected", slog.String("kind", string(kind)), slog.String("error", err.Error()))
		return []models.SearchResult{}
	}
	return resp.Results
}

// Do runs one search. The only error is ErrUnknownKind; provider failures
// are logged and reported through Response.Degraded.
func (a *Aggregator) Do(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		a.metrics.ObserveSearch(string(req.Kind), metrics.OutcomeEmptyQuery, 0)
		return Response{Results: []models.SearchResult{}}, nil
	}

	a.mu.RLock()
	p, ok := a.providers[req.Kind]
	a.mu.RUnlock()
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	key := string(req.Kind) + "\x00" + query
	if a.cache != nil {
		if v, found := a.cache.Get(key); found {
			a.metrics.ObserveSearch(string(req.Kind), metrics.OutcomeCached, 0)
			return Response{Results: cloneResults(v.([]models.SearchResult))}, nil
		}
	}

	start := time.Now()
	results, err := p.Search(ctx, query)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		if ctx.Err() != nil {
			a.metrics.ObserveSearch(string(req.Kind), metrics.OutcomeCanceled, elapsed)
			a.logger.Debug("search: canceled", slog.String("kind", string(req.Kind)))
		} else {
			a.metrics.ObserveSearch(string(req.Kind), metrics.OutcomeFailed, elapsed)
			a.logger.Error("search: provider failed",
				slog.String("kind", string(req.Kind)),
				slog.String("error", err.Error()))
		}
		return Response{Results: []models.SearchResult{}, Degraded: true}, nil
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	a.metrics.ObserveSearch(string(req.Kind), metrics.OutcomeOK, elapsed)

	if a.cache != nil {
		a.cache.SetDefault(key, cloneResults(results))
	}
	return Response{Results: results}, nil
}

// cloneResults copies rs including each raw provider record, so callers
// cannot reach into a cached entry.
func cloneResults(rs []models.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, len(rs))
	for i, r := range rs {
		r.Original = bytes.Clone(r.Original)
		out[i] = r
	}
	return out
}
