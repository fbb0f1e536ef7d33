// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package cache provides the in-memory data structures the ingestion pipeline
relies on outside the entity dedup cache.

# Overview

  - LRU: a generic, thread-safe least-recently-used cache with optional TTL.
    The embedding client keeps computed vectors here, keyed by a hash of the
    input text, so re-runs and resumed runs do not pay for the same text twice.
  - TopK: a bounded min-heap that keeps the K highest-scoring items seen so
    far. Similarity edge generation uses one per movie.

# Thread Safety

LRU is safe for concurrent use. TopK is not; each caller owns its heap.
*/
package cache
