// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package models

import (
	"strings"
	"time"
)

// EdgeType names a hyperedge relation.
type EdgeType string

const (
	EdgeGenreOf           EdgeType = "GENRE_OF"
	EdgeProducedBy        EdgeType = "PRODUCED_BY"
	EdgeProducedIn        EdgeType = "PRODUCED_IN"
	EdgeSpokenIn          EdgeType = "SPOKEN_IN"
	EdgeHasKeyword        EdgeType = "HAS_KEYWORD"
	EdgeDistributionRight EdgeType = "DISTRIBUTION_RIGHT"
	EdgeSimilarTo         EdgeType = "SIMILAR_TO"
)

// Participant roles.
const (
	RoleMovie     = "movie"
	RoleTarget    = "target"
	RoleTerritory = "territory"
	RolePlatform  = "platform"
	RoleSimilar   = "similar"
)

// EdgeTypeFor returns the binary relation linking a movie to an entity type.
func EdgeTypeFor(t NodeType) EdgeType {
	switch t {
	case NodeGenre:
		return EdgeGenreOf
	case NodeCompany:
		return EdgeProducedBy
	case NodeCountry:
		return EdgeProducedIn
	case NodeLanguage:
		return EdgeSpokenIn
	case NodeKeyword:
		return EdgeHasKeyword
	default:
		return ""
	}
}

// Participant is one member of a hyperedge.
type Participant struct {
	NodeID   string   `json:"nodeId"`
	NodeType NodeType `json:"nodeType,omitempty"`
	Role     string   `json:"role"`
}

// Hyperedge links a movie to one or more other participants.
type Hyperedge struct {
	ID           string        `json:"id"`
	Type         EdgeType      `json:"type"`
	Participants []Participant `json:"participants"`
	MovieID      string        `json:"movieId"`
	TargetID     string        `json:"targetId,omitempty"`
	TargetType   NodeType      `json:"targetType,omitempty"`
	Ordinal      int           `json:"ordinal"`
	Primary      bool          `json:"primary"`

	// DISTRIBUTION_RIGHT
	Territory        string             `json:"territory,omitempty"`
	Platform         Platform           `json:"platform,omitempty"`
	ValidFrom        *time.Time         `json:"validFrom,omitempty"`
	ValidTo          *time.Time         `json:"validTo,omitempty"`
	TransactionTime  *time.Time         `json:"transactionTime,omitempty"`
	LicenseType      string             `json:"licenseType,omitempty"`
	DistributionType string             `json:"distributionType,omitempty"`
	Status           DistributionStatus `json:"status,omitempty"`

	// SIMILAR_TO
	Score          float64 `json:"score,omitempty"`
	SimilarityType string  `json:"similarityType,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EdgeID returns the deterministic ID lower(type)_<ids joined by _>.
func EdgeID(t EdgeType, participantIDs ...string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(t)))
	for _, id := range participantIDs {
		b.WriteByte('_')
		b.WriteString(id)
	}
	return b.String()
}

// NewEntityEdge links movieID to an entity at the given list position.
func NewEntityEdge(movieID string, target *EntityNode, ordinal int, primary bool, now time.Time) *Hyperedge {
	t := EdgeTypeFor(target.Type)
	return &Hyperedge{
		ID:   EdgeID(t, movieID, target.ID),
		Type: t,
		Participants: []Participant{
			{NodeID: movieID, NodeType: NodeMovie, Role: RoleMovie},
			{NodeID: target.ID, NodeType: target.Type, Role: RoleTarget},
		},
		MovieID:    movieID,
		TargetID:   target.ID,
		TargetType: target.Type,
		Ordinal:    ordinal,
		Primary:    primary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// DistributionRight describes the terms of a DISTRIBUTION_RIGHT edge.
type DistributionRight struct {
	Territory        string
	Platform         Platform
	ValidFrom        time.Time
	ValidTo          time.Time
	LicenseType      string
	DistributionType string
	Status           DistributionStatus
}

// NewDistributionRightEdge builds the movie-territory-platform hyperedge.
// TransactionTime records when the right entered the system.
func NewDistributionRightEdge(movieID string, r DistributionRight, now time.Time) *Hyperedge {
	from, to, tx := r.ValidFrom, r.ValidTo, now
	return &Hyperedge{
		ID:   EdgeID(EdgeDistributionRight, movieID, r.Territory, string(r.Platform)),
		Type: EdgeDistributionRight,
		Participants: []Participant{
			{NodeID: movieID, NodeType: NodeMovie, Role: RoleMovie},
			{NodeID: r.Territory, Role: RoleTerritory},
			{NodeID: string(r.Platform), Role: RolePlatform},
		},
		MovieID:          movieID,
		Territory:        r.Territory,
		Platform:         r.Platform,
		ValidFrom:        &from,
		ValidTo:          &to,
		TransactionTime:  &tx,
		LicenseType:      r.LicenseType,
		DistributionType: r.DistributionType,
		Status:           r.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ValidAt reports whether a distribution right is in force at t.
func (e *Hyperedge) ValidAt(t time.Time) bool {
	if e.ValidFrom != nil && t.Before(*e.ValidFrom) {
		return false
	}
	if e.ValidTo != nil && !t.Before(*e.ValidTo) {
		return false
	}
	return true
}

// NewSimilarityEdge links two movies with a similarity score.
func NewSimilarityEdge(movieID, otherID string, score float64, similarityType string, now time.Time) *Hyperedge {
	return &Hyperedge{
		ID:   EdgeID(EdgeSimilarTo, movieID, otherID),
		Type: EdgeSimilarTo,
		Participants: []Participant{
			{NodeID: movieID, NodeType: NodeMovie, Role: RoleMovie},
			{NodeID: otherID, NodeType: NodeMovie, Role: RoleSimilar},
		},
		MovieID:        movieID,
		TargetID:       otherID,
		TargetType:     NodeMovie,
		Score:          score,
		SimilarityType: similarityType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
