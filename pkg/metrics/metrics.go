// Package metrics defines the Prometheus metric collectors used across the
// catalog service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	CatalogQueriesTotal  *prometheus.CounterVec
	CatalogQueryLatency  *prometheus.HistogramVec
	CacheHitsTotal       *prometheus.CounterVec
	CacheMissesTotal     *prometheus.CounterVec
	EnrichmentLookups    prometheus.Counter
	UnresolvedGenres     prometheus.Counter
	DocsDroppedTotal     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		CatalogQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_queries_total",
				Help: "Catalog queries by entity family, operation, and outcome.",
			},
			[]string{"family", "operation", "outcome"},
		),
		CatalogQueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_query_latency_seconds",
				Help:    "Catalog query latency in seconds by cache status.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"family", "cache_status"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "result_cache_hits_total",
				Help: "Result cache hits by entity family.",
			},
			[]string{"family"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "result_cache_misses_total",
				Help: "Result cache misses by entity family.",
			},
			[]string{"family"},
		),
		EnrichmentLookups: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "enrichment_batch_lookups_total",
				Help: "Batched genre-resolution lookups issued against the backend.",
			},
		),
		UnresolvedGenres: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "enrichment_unresolved_genres_total",
				Help: "Genre names that had no match in the genre index.",
			},
		),
		DocsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_dropped_total",
				Help: "Documents dropped from responses by reason (malformed).",
			},
			[]string{"family", "reason"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.CatalogQueriesTotal,
		m.CatalogQueryLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EnrichmentLookups,
		m.UnresolvedGenres,
		m.DocsDroppedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
