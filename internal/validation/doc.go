// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

// Package validation evaluates movies against platform delivery rules and
// provides the shared go-playground/validator instance used for struct tags.
//
// # Platform validation
//
// Two entry points serve different budgets:
//
//   - QuickCheck: boolean readiness per platform from a handful of field
//     checks. Run on every movie during ingestion.
//   - Validator.ValidateForAllPlatforms: full rule evaluation through one
//     RuleConnector per platform, fanned out concurrently and joined. Produces
//     per-platform errors, warnings and a 0-100 score.
//
// Scoring: score = max(0, 100 - 10*errors - 2*warnings). The overall score is
// the rounded mean of the platform scores. A platform is valid only when it
// has no errors.
//
// A connector that returns an error or panics is reported as a single
// critical error on its own platform; the other platforms are unaffected.
//
// DeriveStatus maps readiness to a distribution status: no platform ready is
// failed, one or two is validated, all three is ready.
//
// # Struct validation
//
// ValidateStruct runs validate tags through a process-wide validator created
// with WithRequiredStructEnabled, and translates failures into readable
// messages. The built-in rule connectors are themselves expressed as tagged
// structs; presence rules (required*) map to critical severity, everything
// else to error.
package validation
