// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultSkipped  = "skipped"
	ResultRejected = "rejected"
	ResultCached   = "cached"
)

var (
	// Source Metrics
	SourceRecordsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediagraph_source_records_read_total",
			Help: "Total number of records decoded from the source",
		},
	)

	SourceRecordsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediagraph_source_records_skipped_total",
			Help: "Total number of source rows skipped by the decoder",
		},
	)

	SourceBytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediagraph_source_bytes_read_total",
			Help: "Total number of bytes read from the source object",
		},
	)

	// Pipeline Metrics
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagraph_rows_processed_total",
			Help: "Rows passed through the row processor",
		},
		[]string{"result"}, // success, failure
	)

	RecordsFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediagraph_records_filtered_total",
			Help: "Records dropped by the quality filter during ranking",
		},
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediagraph_phase_duration_seconds",
			Help:    "Duration of each ingestion phase",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"phase"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagraph_runs_total",
			Help: "Ingestion runs by outcome",
		},
		[]string{"result"},
	)

	LastRunSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediagraph_last_run_success_timestamp_seconds",
			Help: "Unix time of the last successful ingestion run",
		},
	)

	// Embedding Metrics
	EmbeddingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagraph_embeddings_total",
			Help: "Embedding vectors requested, by result",
		},
		[]string{"result"}, // success, failure, cached
	)

	EmbeddingBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediagraph_embedding_batch_duration_seconds",
			Help:    "Latency of one embedding provider batch call",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Store Metrics
	StoreBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagraph_store_batches_total",
			Help: "Store batches committed, by result",
		},
		[]string{"result"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediagraph_store_operation_duration_seconds",
			Help:    "Latency of document store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagraph_store_operation_errors_total",
			Help: "Document store operation errors",
		},
		[]string{"operation", "collection"},
	)

	GraphMirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediagraph_graph_mirror_errors_total",
			Help: "Batches the graph mirror failed to apply",
		},
	)

	// Readiness Metrics
	PlatformReady = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediagraph_platform_ready_movies",
			Help: "Movies ready for each platform in the last run",
		},
		[]string{"platform"},
	)

	DistributionStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediagraph_distribution_status_movies",
			Help: "Movies per distribution status in the last run",
		},
		[]string{"status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagraph_events_published_total",
			Help: "Events published, by topic and result",
		},
		[]string{"topic", "result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagraph_api_requests_total",
			Help: "HTTP requests to the operational API, by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediagraph_api_request_duration_seconds",
			Help:    "HTTP request latency of the operational API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordStoreOperation records a document store call.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordAPIRequest records one HTTP request. route is the matched route
// pattern, never the raw path.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPhase records how long an ingestion phase took.
func RecordPhase(phase string, duration time.Duration) {
	PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordRun records a finished ingestion run.
func RecordRun(err error) {
	if err != nil {
		RunsTotal.WithLabelValues(ResultFailure).Inc()
		return
	}
	RunsTotal.WithLabelValues(ResultSuccess).Inc()
	LastRunSuccess.Set(float64(time.Now().Unix()))
}

// RecordEvent records one publish attempt.
func RecordEvent(topic string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

// SetReadiness replaces the per-platform and per-status gauges.
func SetReadiness(platformReady, statusCounts map[string]int) {
	PlatformReady.Reset()
	for p, n := range platformReady {
		PlatformReady.WithLabelValues(p).Set(float64(n))
	}
	DistributionStatus.Reset()
	for s, n := range statusCounts {
		DistributionStatus.WithLabelValues(s).Set(float64(n))
	}
}

// BoolResult maps an error to a success/failure label.
func BoolResult(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
