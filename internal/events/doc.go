// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

// Package events publishes pipeline events through Watermill.
//
// Two events exist: a ReadinessEvent per stored movie (topic
// mediagraph.readiness by default) and a RunCompletedEvent per ingestion run
// (mediagraph.ingest.completed). Payloads are JSON; every message carries
// event_type and run_id metadata and uses the run ID as its correlation ID.
package events
