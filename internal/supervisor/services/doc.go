// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package services provides suture.Service wrappers for long-running components.

HTTPServerService translates the blocking ListenAndServe pattern into
Serve(ctx) with a bounded graceful shutdown.

IngestService drives an ingestion Runner (normally *ingest.Orchestrator):
one run at start, optional periodic runs, and on-demand runs queued by
Trigger. Run failures are logged rather than returned, so the supervisor
only restarts the service when Serve itself fails.
*/
package services
