// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package ingest runs the catalog ingestion pipeline.

An Orchestrator owns one run at a time and moves it through five phases:

	loading     stream the source, filter by quality, keep the top-N by popularity
	processing  parse rows into movie nodes, entities and hyperedges
	embeddings  generate vectors in rate-limited batches (optional)
	storing     validate platform readiness, then write batches to the entity store
	complete    persist run statistics and publish a run-completed event

Row and batch failures are logged and counted; they never end the run. Only
source failures, cancellation and panics move a run to the failed phase.

# Across Runs

Movies already in the store start validation from their stored status and
readiness. A ready movie stays ready until delivered. When a movie stops being
ready for a platform, its stored distribution rights for that platform are
closed at the run time.

# Resume

When a ProgressTracker is configured the orchestrator saves a Checkpoint
after every stored batch. A run started with ingest.resume skips every ranked
record up to and including the checkpointed movie. Checkpoints stop advancing
after the first failed store batch so the failed movies are retried on resume.

# Usage

	o := ingest.New(cfg, src, entityStore,
	    ingest.WithEmbedder(provider),
	    ingest.WithEvents(publisher),
	    ingest.WithProgressTracker(ingest.NewBadgerProgress(db)),
	)
	result, err := o.Run(ctx)
*/
package ingest
