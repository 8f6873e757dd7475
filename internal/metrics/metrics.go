// Package metrics exposes Prometheus instrumentation for pipeline runs and
// the HTTP server. A nil *Pipeline is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mining_intel"

// Pipeline holds the collectors the ingestion pipeline writes to.
type Pipeline struct {
	registry *prometheus.Registry

	documentsInFlight  prometheus.Gauge
	documentsProcessed *prometheus.CounterVec
	documentDuration   *prometheus.HistogramVec
	candidates         *prometheus.CounterVec
	extractionCalls    *prometheus.CounterVec
	searchQueries      prometheus.Counter
	runs               *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Pipeline with its own registry.
func New() *Pipeline {
	registry := prometheus.NewRegistry()

	m := &Pipeline{
		registry: registry,
		documentsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "documents_in_flight",
			Help:      "Documents currently being processed.",
		}),
		documentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "documents_processed_total",
			Help:      "Processed documents by source and outcome.",
		}, []string{"source", "outcome"}),
		documentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "document_duration_seconds",
			Help:      "Time to fetch, extract and store one document.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"source"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "candidates_total",
			Help:      "Extracted project candidates by outcome.",
		}, []string{"outcome"}),
		extractionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "calls_total",
			Help:      "Language model extraction calls by outcome.",
		}, []string{"outcome"}),
		searchQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "queries_total",
			Help:      "Web search queries issued.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by kind and status.",
		}, []string{"kind", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.documentsInFlight, m.documentsProcessed, m.documentDuration,
		m.candidates, m.extractionCalls, m.searchQueries, m.runs,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Pipeline) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartDocument marks a document as in flight.
func (m *Pipeline) StartDocument() {
	if m == nil {
		return
	}
	m.documentsInFlight.Inc()
}

// FinishDocument records a processed document. outcome is created, updated,
// skipped or failed.
func (m *Pipeline) FinishDocument(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.documentsInFlight.Dec()
	m.documentsProcessed.WithLabelValues(source, outcome).Inc()
	m.documentDuration.WithLabelValues(source).Observe(d.Seconds())
}

// Candidate counts one extraction candidate: accepted, duplicate or invalid.
func (m *Pipeline) Candidate(outcome string) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(outcome).Inc()
}

// ExtractionCall counts one language model call: ok, unparseable or error.
func (m *Pipeline) ExtractionCall(outcome string) {
	if m == nil {
		return
	}
	m.extractionCalls.WithLabelValues(outcome).Inc()
}

// SearchQueries adds n issued search queries.
func (m *Pipeline) SearchQueries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.searchQueries.Add(float64(n))
}

// Run counts a finished run.
func (m *Pipeline) Run(kind, status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, status).Inc()
}

// ObserveHTTP records one served request.
func (m *Pipeline) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
