// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package validation

import (
	"context"
	"strings"

	"github.com/tomtom215/mediagraph/internal/models"
)

// PlatformRecord is the normalized metadata a rule connector evaluates.
type PlatformRecord struct {
	ID               string
	Title            string
	Overview         string
	Tagline          string
	Runtime          int
	ReleaseDate      string
	ReleaseYear      int
	OriginalLanguage string
	IMDbID           string
	PosterPath       string
	BackdropPath     string
	Adult            bool
	VoteAverage      float64
	Genres           []string
}

// NewPlatformRecord normalizes a processed movie for rule evaluation.
func NewPlatformRecord(pm *models.ProcessedMovie) PlatformRecord {
	m := pm.Movie
	return PlatformRecord{
		ID:               m.ID,
		Title:            strings.TrimSpace(m.Title),
		Overview:         strings.TrimSpace(m.Overview),
		Tagline:          strings.TrimSpace(m.Tagline),
		Runtime:          m.Runtime,
		ReleaseDate:      m.ReleaseDate,
		ReleaseYear:      m.ReleaseYear,
		OriginalLanguage: m.OriginalLanguage,
		IMDbID:           m.IMDbID,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		Adult:            m.Adult,
		VoteAverage:      m.VoteAverage,
		Genres:           pm.GenreNames(),
	}
}

// RuleResult is a connector's verdict for one record.
type RuleResult struct {
	Valid    bool
	Errors   []models.ValidationIssue
	Warnings []models.ValidationWarning
}

// RuleConnector evaluates a record against one platform's delivery rules.
type RuleConnector interface {
	Platform() models.Platform
	Validate(ctx context.Context, rec PlatformRecord) (*RuleResult, error)
}

// recommendation is a non-blocking check producing a warning when it fails.
type recommendation struct {
	field          string
	ok             func(PlatformRecord) bool
	message        string
	recommendation string
}

// tagConnector validates a platform-specific rule struct built from the
// record, then runs the platform's recommendations.
type tagConnector struct {
	platform        models.Platform
	rules           func(PlatformRecord) interface{}
	recommendations []recommendation
}

func (c *tagConnector) Platform() models.Platform { return c.platform }

func (c *tagConnector) Validate(ctx context.Context, rec PlatformRecord) (*RuleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &RuleResult{}
	if err := ValidateStruct(c.rules(rec)); err != nil {
		fes := FieldErrors(err)
		if fes == nil {
			return nil, err
		}
		for i := range fes {
			sev := models.SeverityError
			if fes[i].IsRequired() {
				sev = models.SeverityCritical
			}
			res.Errors = append(res.Errors, models.ValidationIssue{
				Field:    fes[i].Field(),
				Message:  fes[i].Error(),
				Severity: sev,
			})
		}
	}

	for _, r := range c.recommendations {
		if !r.ok(rec) {
			res.Warnings = append(res.Warnings, models.ValidationWarning{
				Field:          r.field,
				Message:        r.message,
				Recommendation: r.recommendation,
			})
		}
	}

	res.Valid = len(res.Errors) == 0
	return res, nil
}

type netflixRules struct {
	Title            string   `validate:"required,max=200"`
	Overview         string   `validate:"required,min=50,max=4000"`
	Runtime          int      `validate:"required,gt=0,lte=600"`
	ReleaseDate      string   `validate:"required,datetime=2006-01-02"`
	OriginalLanguage string   `validate:"required,len=2"`
	Genres           []string `validate:"required,min=1"`
}

type amazonRules struct {
	Title       string `validate:"required,max=250"`
	Overview    string `validate:"required,min=10"`
	Runtime     int    `validate:"required,gt=0"`
	ReleaseYear int    `validate:"omitempty,gte=1888"`
}

type fastRules struct {
	Title        string `validate:"required"`
	Runtime      int    `validate:"required,gt=0"`
	PosterPath   string `validate:"required_without=BackdropPath"`
	BackdropPath string `validate:"required_without=PosterPath"`
	Adult        bool   `validate:"eq=false"`
}

func hasText(s string) bool { return strings.TrimSpace(s) != "" }

// NewNetflixConnector returns the built-in Netflix rule set.
func NewNetflixConnector() RuleConnector {
	return &tagConnector{
		platform: models.PlatformNetflix,
		rules: func(r PlatformRecord) interface{} {
			return &netflixRules{
				Title: r.Title, Overview: r.Overview, Runtime: r.Runtime,
				ReleaseDate: r.ReleaseDate, OriginalLanguage: r.OriginalLanguage, Genres: r.Genres,
			}
		},
		recommendations: []recommendation{
			{"PosterPath", func(r PlatformRecord) bool { return hasText(r.PosterPath) }, "no key art", "supply a 2:3 poster"},
			{"BackdropPath", func(r PlatformRecord) bool { return hasText(r.BackdropPath) }, "no backdrop", "supply a 16:9 backdrop"},
			{"IMDbID", func(r PlatformRecord) bool { return hasText(r.IMDbID) }, "no external reference", "add an IMDb identifier"},
			{"Tagline", func(r PlatformRecord) bool { return hasText(r.Tagline) }, "no tagline", "add a short marketing tagline"},
		},
	}
}

// NewAmazonConnector returns the built-in Amazon rule set.
func NewAmazonConnector() RuleConnector {
	return &tagConnector{
		platform: models.PlatformAmazon,
		rules: func(r PlatformRecord) interface{} {
			return &amazonRules{Title: r.Title, Overview: r.Overview, Runtime: r.Runtime, ReleaseYear: r.ReleaseYear}
		},
		recommendations: []recommendation{
			{"PosterPath", func(r PlatformRecord) bool { return hasText(r.PosterPath) }, "no cover art", "supply cover art"},
			{"Genres", func(r PlatformRecord) bool { return len(r.Genres) > 0 }, "no genres", "tag at least one genre"},
			{"IMDbID", func(r PlatformRecord) bool { return hasText(r.IMDbID) }, "no external reference", "add an IMDb identifier"},
		},
	}
}

// NewFASTConnector returns the built-in free ad-supported TV rule set.
func NewFASTConnector() RuleConnector {
	return &tagConnector{
		platform: models.PlatformFAST,
		rules: func(r PlatformRecord) interface{} {
			return &fastRules{Title: r.Title, Runtime: r.Runtime, PosterPath: r.PosterPath, BackdropPath: r.BackdropPath, Adult: r.Adult}
		},
		recommendations: []recommendation{
			{"Overview", func(r PlatformRecord) bool { return len(r.Overview) >= 10 }, "short or missing synopsis", "provide an EPG synopsis"},
			{"Genres", func(r PlatformRecord) bool { return len(r.Genres) > 0 }, "no genres", "tag at least one genre for channel placement"},
		},
	}
}

// DefaultConnectors returns the built-in connectors for every platform.
func DefaultConnectors() []RuleConnector {
	return []RuleConnector{NewNetflixConnector(), NewAmazonConnector(), NewFASTConnector()}
}
