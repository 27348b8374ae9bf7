// Package metrics holds the Prometheus collectors exported by shelf.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes recorded by the aggregator.
const (
	OutcomeOK         = "ok"
	OutcomeFailed     = "failed"
	OutcomeCached     = "cached"
	OutcomeCanceled   = "canceled"
	OutcomeEmptyQuery = "empty_query"
)

// Metrics holds all application collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and library callers free of setup.
type Metrics struct {
	registry *prometheus.Registry

	SearchRequestsTotal   *prometheus.CounterVec
	SearchDurationSeconds *prometheus.HistogramVec
	StoreMutationsTotal   *prometheus.CounterVec
	PersistFailuresTotal  prometheus.Counter
	CollectionItems       *prometheus.GaugeVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_search_requests_total",
				Help: "Catalog searches by media kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		SearchDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelf_search_duration_seconds",
				Help:    "Latency of provider calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		StoreMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_store_mutations_total",
				Help: "Item store mutations by operation",
			},
			[]string{"op"},
		),
		PersistFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shelf_persist_failures_total",
				Help: "State saves that failed and left only in-memory state",
			},
		),
		CollectionItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shelf_collection_items",
				Help: "Items in the collection by category",
			},
			[]string{"category"},
		),
	}
	reg.MustRegister(
		m.SearchRequestsTotal,
		m.SearchDurationSeconds,
		m.StoreMutationsTotal,
		m.PersistFailuresTotal,
		m.CollectionItems,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSearch records one search with its outcome and provider latency.
func (m *Metrics) ObserveSearch(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(kind, outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomeFailed {
		m.SearchDurationSeconds.WithLabelValues(kind).Observe(seconds)
	}
}

// ObserveMutation records one store mutation.
func (m *Metrics) ObserveMutation(op string) {
	if m == nil {
		return
	}
	m.StoreMutationsTotal.WithLabelValues(op).Inc()
}

// ObservePersistFailure records a failed save.
func (m *Metrics) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailuresTotal.Inc()
}

// SetCollectionSize updates the per-category item gauge.
func (m *Metrics) SetCollectionSize(counts map[string]int) {
	if m == nil {
		return
	}
	for category, n := range counts {
		m.CollectionItems.WithLabelValues(category).Set(float64(n))
	}
}
