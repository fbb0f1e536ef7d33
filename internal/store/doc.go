// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package store persists the movie hypergraph.

The persistence boundary is DocumentStore: namespaced collections of JSON
documents with merge-upsert commits, equality and range filters, and
single-field ordering. Two implementations exist:

  - BadgerStore: BadgerDB on disk (or in memory), one read-write transaction
    per Commit, keys of the form "<collection>/<id>"
  - MemoryStore: process memory, for tests and dry runs

EntityStore sits on top and speaks in models: it chunks upserts to the
store's MaxBatchOps, commits each chunk independently (so one bad chunk does
not sink its neighbours), and answers the read queries the pipeline and
operators need. An optional GraphMirror (Neo4jMirror for Neo4j or Memgraph)
receives every committed batch as Cypher MERGE statements.

# Merge Rules

Upserts merge with the stored document rather than replace it:

  - fields absent from the incoming document are kept
  - createdAt is never overwritten
  - distributionStatus only moves forward (DistributionStatus.CanReach);
    a downgrade keeps the stored status and platformReadiness, so a ready
    or delivered movie is never demoted by a later run
  - a DISTRIBUTION_RIGHT keeps its first transactionTime and validFrom
    while it stays in force; validTo and status follow the latest run
  - movieCount keeps the larger of the two values
*/
package store
