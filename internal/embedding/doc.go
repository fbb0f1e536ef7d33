// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

// Package embedding is the client side of the external embedding model.
//
// GeminiProvider talks to the Generative Language batchEmbedContents
// endpoint. ResilientProvider wraps any Provider with a sony/gobreaker circuit
// breaker, bounded exponential retry and an LRU vector cache; the ingestion
// orchestrator only ever sees the wrapped provider.
package embedding
