// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

// Command mediagraph-ingest loads a movie catalog export into the
// hypergraph entity store.
//
// # Modes
//
//	mediagraph-ingest run    # one ingestion, exit status 1 on a run-level failure
//	mediagraph-ingest serve  # supervised; /healthz, /metrics and run control on metrics.listen
//
// # Configuration
//
// Settings are layered with koanf (highest priority wins):
//   - Environment variables (SOURCE_BUCKET, INGEST_TARGET_SIZE, EMBEDDING_API_KEY, ...)
//   - Config file (CONFIG_PATH, or mediagraph.yaml)
//   - Built-in defaults
//
// # Example
//
//	export SOURCE_ROOT_DIR=./data SOURCE_BUCKET=catalog SOURCE_OBJECT=movies.csv
//	export STORE_PATH=/var/lib/mediagraph/store
//	export EMBEDDING_API_KEY=...
//	mediagraph-ingest run
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the active run. Run statistics and the
// run-completed event are still written before the process exits.
package main
