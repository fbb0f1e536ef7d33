// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package transform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/tomtom215/mediagraph/internal/models"
)

// ErrInvalidRecord marks a row that cannot become a movie node.
var ErrInvalidRecord = errors.New("invalid record")

// Processor turns raw catalog rows into movies, entities and edges.
type Processor struct {
	cache *EntityCache
	now   func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the processor's time source.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor returns a processor writing into cache.
func NewProcessor(cache *EntityCache, opts ...Option) *Processor {
	p := &Processor{cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache returns the processor's entity cache.
func (p *Processor) Cache() *EntityCache {
	return p.cache
}

// ProcessRow converts one raw record. It returns ErrInvalidRecord when the
// record has no identifier or no title; every other malformed field degrades
// to its zero value. Entity caches are only touched for valid records.
func (p *Processor) ProcessRow(raw models.RawRecord) (*models.ProcessedMovie, error) {
	id := NormalizeID(raw.Get(models.FieldID))
	title := raw.Get(models.FieldTitle)
	switch {
	case id == "" && title == "":
		return nil, fmt.Errorf("%w: missing id and title", ErrInvalidRecord)
	case id == "":
		return nil, fmt.Errorf("%w: missing id for %q", ErrInvalidRecord, title)
	case title == "":
		return nil, fmt.Errorf("%w: missing title for id %s", ErrInvalidRecord, id)
	}

	now := p.now()
	m := models.NewMovieNode(id, title, now)
	m.OriginalTitle = raw.Get(models.FieldOriginalTitle)
	m.Overview = raw.Get(models.FieldOverview)
	m.Tagline = raw.Get(models.FieldTagline)
	m.Status = raw.Get(models.FieldStatus)
	m.ReleaseDate = raw.Get(models.FieldReleaseDate)
	m.ReleaseYear = ReleaseYear(m.ReleaseDate)
	m.Runtime = ParseInt(raw.Get(models.FieldRuntime))
	m.Budget = ParseInt64(raw.Get(models.FieldBudget))
	m.Revenue = ParseInt64(raw.Get(models.FieldRevenue))
	m.VoteAverage = ParseFloat(raw.Get(models.FieldVoteAverage))
	m.VoteCount = ParseInt(raw.Get(models.FieldVoteCount))
	m.Popularity = ParseFloat(raw.Get(models.FieldPopularity))
	m.Adult = ParseBool(raw.Get(models.FieldAdult))
	m.Homepage = raw.Get(models.FieldHomepage)
	m.PosterPath = raw.Get(models.FieldPosterPath)
	m.BackdropPath = raw.Get(models.FieldBackdropPath)
	m.IMDbID = raw.Get(models.FieldIMDbID)
	m.OriginalLanguage = strings.ToLower(raw.Get(models.FieldOriginalLanguage))

	pm := &models.ProcessedMovie{Movie: m}
	pm.Genres = p.resolve(models.NodeGenre, raw.Get(models.FieldGenres), true, now)
	pm.Companies = p.resolve(models.NodeCompany, raw.Get(models.FieldProductionCompanies), false, now)
	pm.Countries = p.resolve(models.NodeCountry, raw.Get(models.FieldProductionCountries), false, now)
	pm.Languages = p.resolve(models.NodeLanguage, raw.Get(models.FieldSpokenLanguages), false, now)
	pm.Keywords = p.resolve(models.NodeKeyword, raw.Get(models.FieldKeywords), true, now)

	pm.Edges = make([]*models.Hyperedge, 0, len(pm.Genres)+len(pm.Companies)+len(pm.Countries)+len(pm.Languages)+len(pm.Keywords))
	pm.Edges = appendEdges(pm.Edges, id, pm.Genres, true, now)
	pm.Edges = appendEdges(pm.Edges, id, pm.Companies, false, now)
	pm.Edges = appendEdges(pm.Edges, id, pm.Countries, false, now)
	pm.Edges = appendEdges(pm.Edges, id, pm.Languages, true, now)
	pm.Edges = appendEdges(pm.Edges, id, pm.Keywords, false, now)

	return pm, nil
}

func appendEdges(edges []*models.Hyperedge, movieID string, targets []*models.EntityNode, flagPrimary bool, now time.Time) []*models.Hyperedge {
	for i, t := range targets {
		edges = append(edges, models.NewEntityEdge(movieID, t, i, flagPrimary && i == 0, now))
	}
	return edges
}

// entityRef is a decoded entry before cache resolution.
type entityRef struct {
	id, name string
	init     func(*models.EntityNode)
}

// resolve decodes a multi-valued field and resolves each distinct entry in
// the cache. A movie counts once per entity even if the field repeats it.
func (p *Processor) resolve(t models.NodeType, text string, commaFallback bool, now time.Time) []*models.EntityNode {
	refs := decodeRefs(t, text)
	if len(refs) == 0 && commaFallback {
		for _, name := range SplitNames(text) {
			refs = append(refs, entityRef{id: StableID(name), name: name})
		}
	}
	if len(refs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(refs))
	out := make([]*models.EntityNode, 0, len(refs))
	for _, r := range refs {
		if _, dup := seen[r.id]; dup {
			continue
		}
		seen[r.id] = struct{}{}
		out = append(out, p.cache.Resolve(t, r.id, r.name, now, r.init))
	}
	return out
}

func decodeRefs(t models.NodeType, text string) []entityRef {
	entries := DecodeEntries(text)
	refs := make([]entityRef, 0, len(entries))
	for _, e := range entries {
		if r, ok := refFromEntry(t, e); ok {
			refs = append(refs, r)
		}
	}
	return refs
}

// refFromEntry picks the natural ID for an entry: ISO codes for countries and
// languages, the numeric source id otherwise, and StableID(name) as the last
// resort.
func refFromEntry(t models.NodeType, e map[string]any) (entityRef, bool) {
	name := anyString(e["name"])
	var id string

	switch t {
	case models.NodeCountry:
		iso := strings.ToUpper(anyString(e["iso_3166_1"]))
		id = iso
		if name == "" {
			name = iso
		}
		if iso != "" {
			return entityRef{id: id, name: name, init: func(n *models.EntityNode) { n.ISOCode = iso }}, true
		}
	case models.NodeLanguage:
		iso := strings.ToLower(anyString(e["iso_639_1"]))
		if name == "" {
			name = anyString(e["english_name"])
		}
		if name == "" {
			name = iso
		}
		if iso != "" {
			return entityRef{id: iso, name: name, init: func(n *models.EntityNode) {
				n.ISOCode = iso
				n.Locale = LocaleTag(iso)
			}}, true
		}
	case models.NodeCompany:
		id = anyString(e["id"])
		origin := strings.ToUpper(anyString(e["origin_country"]))
		logo := anyString(e["logo_path"])
		if id == "" && name != "" {
			id = StableID(name)
		}
		if id == "" {
			return entityRef{}, false
		}
		return entityRef{id: id, name: name, init: func(n *models.EntityNode) {
			n.OriginCountry = origin
			n.LogoPath = logo
		}}, true
	default:
		id = anyString(e["id"])
	}

	if id == "" && name != "" {
		id = StableID(name)
	}
	if id == "" {
		return entityRef{}, false
	}
	return entityRef{id: id, name: name}, true
}

// LocaleTag maps a language code to a BCP-47 tag with its most likely region,
// e.g. "en" -> "en-US", "pt" -> "pt-BR". Unknown codes yield "".
func LocaleTag(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.No || region.String() == "ZZ" {
		return base.String()
	}
	return base.String() + "-" + region.String()
}

// BatchStats tallies one ProcessBatch call.
type BatchStats struct {
	Processed int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// RowFailure records why a row was skipped.
type RowFailure struct {
	ID    string
	Title string
	Err   error
}

// BatchOutput is the result of ProcessBatch.
type BatchOutput struct {
	Movies   []*models.ProcessedMovie
	Failures []RowFailure
	Stats    BatchStats
}

// ProcessBatch folds ProcessRow over rows. A row that fails or panics is
// counted and skipped; it never affects the other rows.
func (p *Processor) ProcessBatch(rows []models.RawRecord) BatchOutput {
	start := time.Now()
	out := BatchOutput{Movies: make([]*models.ProcessedMovie, 0, len(rows))}

	for _, raw := range rows {
		out.Stats.Processed++
		pm, err := p.safeProcessRow(raw)
		if err != nil {
			out.Stats.Failed++
			out.Failures = append(out.Failures, RowFailure{
				ID:    raw.Get(models.FieldID),
				Title: raw.Get(models.FieldTitle),
				Err:   err,
			})
			continue
		}
		out.Stats.Succeeded++
		out.Movies = append(out.Movies, pm)
	}

	out.Stats.Elapsed = time.Since(start)
	return out
}

func (p *Processor) safeProcessRow(raw models.RawRecord) (pm *models.ProcessedMovie, err error) {
	defer func() {
		if r := recover(); r != nil {
			pm, err = nil, fmt.Errorf("%w: panic: %v", ErrInvalidRecord, r)
		}
	}()
	return p.ProcessRow(raw)
}
