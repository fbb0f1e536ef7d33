// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package models

import "time"

// NodeType discriminates node documents.
type NodeType string

const (
	NodeMovie    NodeType = "movie"
	NodeGenre    NodeType = "genre"
	NodeCompany  NodeType = "production_company"
	NodeCountry  NodeType = "country"
	NodeLanguage NodeType = "language"
	NodeKeyword  NodeType = "keyword"
)

// Collection names in the document store.
const (
	CollectionMovies    = "movies"
	CollectionGenres    = "genres"
	CollectionCompanies = "companies"
	CollectionCountries = "countries"
	CollectionLanguages = "languages"
	CollectionKeywords  = "keywords"
	CollectionEdges     = "edges"
	CollectionStats     = "stats"
)

// EntityTypes lists the non-movie node types in a fixed order.
var EntityTypes = []NodeType{NodeGenre, NodeCompany, NodeCountry, NodeLanguage, NodeKeyword}

// Collection returns the document collection that stores nodes of this type.
func (t NodeType) Collection() string {
	switch t {
	case NodeMovie:
		return CollectionMovies
	case NodeGenre:
		return CollectionGenres
	case NodeCompany:
		return CollectionCompanies
	case NodeCountry:
		return CollectionCountries
	case NodeLanguage:
		return CollectionLanguages
	case NodeKeyword:
		return CollectionKeywords
	default:
		return ""
	}
}

// Node holds the fields every node document carries.
type Node struct {
	ID        string    `json:"id"`
	Type      NodeType  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MovieNode is a single catalog title.
type MovieNode struct {
	Node

	Title            string  `json:"title"`
	OriginalTitle    string  `json:"originalTitle,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	Tagline          string  `json:"tagline,omitempty"`
	Status           string  `json:"status,omitempty"`
	ReleaseDate      string  `json:"releaseDate,omitempty"`
	ReleaseYear      int     `json:"releaseYear,omitempty"`
	Runtime          int     `json:"runtime"`
	Budget           int64   `json:"budget"`
	Revenue          int64   `json:"revenue"`
	VoteAverage      float64 `json:"voteAverage"`
	VoteCount        int     `json:"voteCount"`
	Popularity       float64 `json:"popularity"`
	Adult            bool    `json:"adult"`
	Homepage         string  `json:"homepage,omitempty"`
	PosterPath       string  `json:"posterPath,omitempty"`
	BackdropPath     string  `json:"backdropPath,omitempty"`
	IMDbID           string  `json:"imdbId,omitempty"`
	OriginalLanguage string  `json:"originalLanguage,omitempty"`

	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embeddingModel,omitempty"`

	DistributionStatus DistributionStatus   `json:"distributionStatus"`
	PlatformReadiness  PlatformReadiness    `json:"platformReadiness"`
	PlatformValidation []PlatformValidation `json:"platformValidation,omitempty"`
}

// NewMovieNode returns a pending movie node stamped with now.
func NewMovieNode(id, title string, now time.Time) *MovieNode {
	return &MovieNode{
		Node:               Node{ID: id, Type: NodeMovie, CreatedAt: now, UpdatedAt: now},
		Title:              title,
		DistributionStatus: StatusPending,
	}
}

// HasEmbedding reports whether a vector is attached.
func (m *MovieNode) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// EntityNode is a genre, production company, country, language or keyword.
// Type selects which; the optional fields apply only to some types.
type EntityNode struct {
	Node

	Name       string `json:"name"`
	MovieCount int    `json:"movieCount"`

	// Country and language nodes.
	ISOCode string `json:"isoCode,omitempty"`
	// Language nodes: BCP-47 tag such as en-US.
	Locale string `json:"locale,omitempty"`

	// Production company nodes.
	OriginCountry string `json:"originCountry,omitempty"`
	LogoPath      string `json:"logoPath,omitempty"`
}

// NewEntityNode returns an entity seen for the first time.
func NewEntityNode(t NodeType, id, name string, now time.Time) *EntityNode {
	return &EntityNode{
		Node:       Node{ID: id, Type: t, CreatedAt: now, UpdatedAt: now},
		Name:       name,
		MovieCount: 1,
	}
}

// Touch records one more movie referencing the entity.
func (e *EntityNode) Touch(now time.Time) {
	e.MovieCount++
	e.UpdatedAt = now
}

// Key returns a cache key unique across entity types.
func (e *EntityNode) Key() string {
	return EntityKey(e.Type, e.ID)
}

// EntityKey builds the cross-type cache key for an entity.
func EntityKey(t NodeType, id string) string {
	return string(t) + ":" + id
}
