// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package models defines the hypergraph data model shared by every stage of the
ingestion pipeline.

Node types:

  - MovieNode: one catalog title with its scalar metadata, optional embedding
    vector, distribution status and per-platform readiness flags
  - EntityNode: a genre, production company, country, spoken language or
    keyword; carries a name and a running movieCount

Edge types (Hyperedge):

  - GENRE_OF, PRODUCED_BY, PRODUCED_IN, SPOKEN_IN, HAS_KEYWORD: movie to
    entity, with the ordinal position from the source list and a primary flag
  - DISTRIBUTION_RIGHT: movie, territory and platform, with bitemporal
    validity (ValidFrom/ValidTo) and TransactionTime
  - SIMILAR_TO: movie to movie with a similarity score

Node IDs are stable across runs: source identifiers are used when present and
StableID(name) otherwise. Edge IDs are derived from the edge type and the
participant IDs, so re-ingesting the same catalog rewrites the same documents.

A movie's DistributionStatus follows a small state machine (see
DistributionStatus.CanTransitionTo). ApplyReadiness is the only path that moves
a movie to StatusReady and it refuses to do so unless every platform flag is set.
Between runs a status may only move forward along the workflow
(DistributionStatus.CanReach): a ready movie stays ready until delivered.
*/
package models
