// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package models

import "strings"

// Source catalog column names.
const (
	FieldID                  = "id"
	FieldTitle               = "title"
	FieldVoteAverage         = "vote_average"
	FieldVoteCount           = "vote_count"
	FieldStatus              = "status"
	FieldReleaseDate         = "release_date"
	FieldRevenue             = "revenue"
	FieldRuntime             = "runtime"
	FieldAdult               = "adult"
	FieldBackdropPath        = "backdrop_path"
	FieldBudget              = "budget"
	FieldHomepage            = "homepage"
	FieldIMDbID              = "imdb_id"
	FieldOriginalLanguage    = "original_language"
	FieldOriginalTitle       = "original_title"
	FieldOverview            = "overview"
	FieldPopularity          = "popularity"
	FieldPosterPath          = "poster_path"
	FieldTagline             = "tagline"
	FieldGenres              = "genres"
	FieldProductionCompanies = "production_companies"
	FieldProductionCountries = "production_countries"
	FieldSpokenLanguages     = "spoken_languages"
	FieldKeywords            = "keywords"
)

// RawRecord is one source row keyed by header name.
type RawRecord map[string]string

// Get returns the trimmed value of field, or "".
func (r RawRecord) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// ProcessedMovie is a movie together with the entities and edges derived
// from its source row. Entity pointers are shared with the run's cache.
type ProcessedMovie struct {
	Movie     *MovieNode    `json:"movie"`
	Genres    []*EntityNode `json:"genres,omitempty"`
	Companies []*EntityNode `json:"companies,omitempty"`
	Countries []*EntityNode `json:"countries,omitempty"`
	Languages []*EntityNode `json:"languages,omitempty"`
	Keywords  []*EntityNode `json:"keywords,omitempty"`
	Edges     []*Hyperedge  `json:"edges,omitempty"`
}

// Entities returns every related entity in type order.
func (p *ProcessedMovie) Entities() []*EntityNode {
	n := len(p.Genres) + len(p.Companies) + len(p.Countries) + len(p.Languages) + len(p.Keywords)
	out := make([]*EntityNode, 0, n)
	out = append(out, p.Genres...)
	out = append(out, p.Companies...)
	out = append(out, p.Countries...)
	out = append(out, p.Languages...)
	out = append(out, p.Keywords...)
	return out
}

// GenreNames returns the genre names in source order.
func (p *ProcessedMovie) GenreNames() []string {
	names := make([]string, 0, len(p.Genres))
	for _, g := range p.Genres {
		names = append(names, g.Name)
	}
	return names
}
