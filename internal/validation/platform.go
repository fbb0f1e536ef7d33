// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package validation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/models"
)

// Score penalties.
const (
	errorPenalty   = 10
	warningPenalty = 2
)

// FullValidation is the combined per-platform verdict for one movie.
type FullValidation struct {
	Netflix      bool                        `json:"netflix"`
	Amazon       bool                        `json:"amazon"`
	FAST         bool                        `json:"fast"`
	Platforms    []models.PlatformValidation `json:"platforms"`
	OverallScore int                         `json:"overallScore"`
}

// Readiness returns the validity flags as platform readiness.
func (f *FullValidation) Readiness() models.PlatformReadiness {
	return models.PlatformReadiness{Netflix: f.Netflix, Amazon: f.Amazon, FAST: f.FAST}
}

// Validator runs platform rule connectors.
type Validator struct {
	connectors map[models.Platform]RuleConnector
	now        func() time.Time
}

// NewValidator builds a validator. With no connectors the built-in rule sets
// are used; otherwise the given connectors replace the built-ins per platform.
func NewValidator(connectors ...RuleConnector) *Validator {
	v := &Validator{connectors: make(map[models.Platform]RuleConnector), now: time.Now}
	for _, c := range DefaultConnectors() {
		v.connectors[c.Platform()] = c
	}
	for _, c := range connectors {
		v.connectors[c.Platform()] = c
	}
	return v
}

// Score computes max(0, 100 - 10*errors - 2*warnings).
func Score(errorCount, warningCount int) int {
	s := 100 - errorPenalty*errorCount - warningPenalty*warningCount
	if s < 0 {
		return 0
	}
	return s
}

// ValidateForAllPlatforms evaluates the movie on every platform concurrently.
// A connector that fails or panics yields one critical error for its own
// platform and does not affect the others.
func (v *Validator) ValidateForAllPlatforms(ctx context.Context, pm *models.ProcessedMovie) *FullValidation {
	rec := NewPlatformRecord(pm)
	results := make([]models.PlatformValidation, len(models.AllPlatforms))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range models.AllPlatforms {
		g.Go(func() error {
			results[i] = v.runConnector(gctx, p, rec)
			return nil
		})
	}
	_ = g.Wait()

	out := &FullValidation{Platforms: results}
	total := 0
	for _, r := range results {
		total += r.Score
		switch r.Platform {
		case models.PlatformNetflix:
			out.Netflix = r.Valid
		case models.PlatformAmazon:
			out.Amazon = r.Valid
		case models.PlatformFAST:
			out.FAST = r.Valid
		}
	}
	out.OverallScore = int(math.Round(float64(total) / float64(len(results))))
	return out
}

func (v *Validator) runConnector(ctx context.Context, p models.Platform, rec PlatformRecord) (pv models.PlatformValidation) {
	pv = models.PlatformValidation{Platform: p, ValidatedAt: v.now()}

	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Str("platform", string(p)).Interface("panic", r).Msg("Rule connector panicked")
			pv = connectorFailure(p, fmt.Errorf("connector panic: %v", r), pv.ValidatedAt)
		}
	}()

	c, ok := v.connectors[p]
	if !ok {
		return connectorFailure(p, fmt.Errorf("no rule connector registered"), pv.ValidatedAt)
	}

	res, err := c.Validate(ctx, rec)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("platform", string(p)).Str("movie_id", rec.ID).Msg("Rule connector failed")
		return connectorFailure(p, err, pv.ValidatedAt)
	}
	if res == nil {
		return connectorFailure(p, fmt.Errorf("connector returned no result"), pv.ValidatedAt)
	}

	pv.Errors = res.Errors
	pv.Warnings = res.Warnings
	pv.Valid = res.Valid && len(res.Errors) == 0
	pv.Score = Score(len(res.Errors), len(res.Warnings))
	return pv
}

func connectorFailure(p models.Platform, err error, at time.Time) models.PlatformValidation {
	errs := []models.ValidationIssue{{
		Field:    "platform",
		Message:  fmt.Sprintf("%s validation failed: %v", p, err),
		Severity: models.SeverityCritical,
	}}
	return models.PlatformValidation{
		Platform:    p,
		Valid:       false,
		Score:       Score(len(errs), 0),
		Errors:      errs,
		ValidatedAt: at,
	}
}

// Quick check thresholds.
const (
	minOverviewBase    = 10
	minOverviewNetflix = 50
)

// QuickCheck is the boolean-only readiness check used during ingestion.
// Overview lengths are counted in runes after trimming surrounding space.
func QuickCheck(m *models.MovieNode) models.PlatformReadiness {
	overview := utf8.RuneCountInString(strings.TrimSpace(m.Overview))
	base := strings.TrimSpace(m.Title) != "" && overview >= minOverviewBase
	if !base {
		return models.PlatformReadiness{}
	}

	hasRuntime := m.Runtime > 0
	hasImage := strings.TrimSpace(m.PosterPath) != "" || strings.TrimSpace(m.BackdropPath) != ""
	return models.PlatformReadiness{
		Netflix: overview >= minOverviewNetflix && hasRuntime && strings.TrimSpace(m.ReleaseDate) != "",
		Amazon:  hasRuntime,
		FAST:    hasRuntime && hasImage,
	}
}

// DeriveStatus maps readiness to a distribution status.
func DeriveStatus(r models.PlatformReadiness) models.DistributionStatus {
	switch r.Count() {
	case 0:
		return models.StatusFailed
	case len(models.AllPlatforms):
		return models.StatusReady
	default:
		return models.StatusValidated
	}
}
