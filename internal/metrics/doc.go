// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package metrics provides Prometheus instrumentation for the ingestion pipeline.

All collectors are registered on the default registry with promauto and are
exposed at /metrics by the supervisor's HTTP service.

# Available Metrics

Source:
  - mediagraph_source_records_read_total, mediagraph_source_records_skipped_total
  - mediagraph_source_bytes_read_total

Pipeline:
  - mediagraph_rows_processed_total{result}
  - mediagraph_records_filtered_total
  - mediagraph_phase_duration_seconds{phase}
  - mediagraph_runs_total{result}, mediagraph_last_run_success_timestamp_seconds

Embedding:
  - mediagraph_embeddings_total{result}: success, failure or cached
  - mediagraph_embedding_batch_duration_seconds

Store:
  - mediagraph_store_batches_total{result}
  - mediagraph_store_operation_duration_seconds{operation,collection}
  - mediagraph_store_operation_errors_total{operation,collection}
  - mediagraph_graph_mirror_errors_total

Readiness:
  - mediagraph_platform_ready_movies{platform}
  - mediagraph_distribution_status_movies{status}
  - mediagraph_events_published_total{topic,result}

Circuit breaker:
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

# Example PromQL

	rate(mediagraph_rows_processed_total{result="failure"}[5m])
	histogram_quantile(0.95, rate(mediagraph_embedding_batch_duration_seconds_bucket[5m]))
*/
package metrics
