// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

// Package logging provides the zerolog-based structured logger used across
// the ingestion pipeline.
//
// A single global logger is configured once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("object", obj).Msg("Streaming source")
//
// Pipeline code logs through Ctx, which stamps every line with the run ID and
// current phase carried on the context:
//
//	ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
//	logging.Ctx(ctx).Warn().Err(err).Msg("Embedding batch failed")
//
// Libraries that only speak log/slog (suture, watermill) are bridged with
// NewSlogLogger.
//
// Always terminate event chains with Msg or Send, and prefer typed fields over
// Msgf formatting.
package logging
