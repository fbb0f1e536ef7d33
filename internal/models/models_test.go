// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package models

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEdgeID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  EdgeType
		ids  []string
		want string
	}{
		{EdgeGenreOf, []string{"603", "28"}, "genre_of_603_28"},
		{EdgeDistributionRight, []string{"603", "US", "netflix"}, "distribution_right_603_US_netflix"},
		{EdgeSimilarTo, []string{"1", "2"}, "similar_to_1_2"},
		{EdgeHasKeyword, nil, "has_keyword"},
	}
	for _, tt := range tests {
		if got := EdgeID(tt.typ, tt.ids...); got != tt.want {
			t.Errorf("EdgeID(%s, %v) = %q, want %q", tt.typ, tt.ids, got, tt.want)
		}
	}
}

func TestNewEntityEdge(t *testing.T) {
	t.Parallel()

	genre := NewEntityNode(NodeGenre, "28", "Action", testNow)
	e := NewEntityEdge("603", genre, 0, true, testNow)

	if e.Type != EdgeGenreOf {
		t.Errorf("Type = %s, want GENRE_OF", e.Type)
	}
	if e.ID != "genre_of_603_28" {
		t.Errorf("ID = %q", e.ID)
	}
	if len(e.Participants) != 2 || e.Participants[1].NodeType != NodeGenre {
		t.Errorf("Participants = %+v", e.Participants)
	}
	if !e.Primary || e.Ordinal != 0 {
		t.Errorf("Primary/Ordinal = %v/%d, want true/0", e.Primary, e.Ordinal)
	}
}

func TestDistributionRightEdge_ValidAt(t *testing.T) {
	t.Parallel()

	from := testNow
	to := testNow.AddDate(1, 0, 0)
	e := NewDistributionRightEdge("603", DistributionRight{
		Territory: "US", Platform: PlatformFAST, ValidFrom: from, ValidTo: to,
		LicenseType: "non_exclusive", DistributionType: "avod", Status: StatusReady,
	}, testNow)

	if e.TransactionTime == nil || !e.TransactionTime.Equal(testNow) {
		t.Errorf("TransactionTime = %v, want %v", e.TransactionTime, testNow)
	}
	if !e.ValidAt(from.Add(time.Hour)) {
		t.Error("right should be valid inside the window")
	}
	if e.ValidAt(from.Add(-time.Hour)) {
		t.Error("right should not be valid before ValidFrom")
	}
	if e.ValidAt(to) {
		t.Error("ValidTo should be exclusive")
	}
}

func TestEntityNode_Touch(t *testing.T) {
	t.Parallel()

	e := NewEntityNode(NodeKeyword, "1", "heist", testNow)
	later := testNow.Add(time.Minute)
	e.Touch(later)
	e.Touch(later)

	if e.MovieCount != 3 {
		t.Errorf("MovieCount = %d, want 3", e.MovieCount)
	}
	if !e.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", e.UpdatedAt, later)
	}
	if !e.CreatedAt.Equal(testNow) {
		t.Error("CreatedAt must not change")
	}
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to DistributionStatus
		ok       bool
	}{
		{StatusPending, StatusValidated, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusReady, false},
		{StatusValidated, StatusReady, true},
		{StatusValidated, StatusValidated, true},
		{StatusFailed, StatusFailed, true},
		{StatusFailed, StatusValidated, true},
		{StatusReady, StatusDelivered, true},
		{StatusReady, StatusFailed, false},
		{StatusDelivered, StatusReady, false},
		{StatusDelivered, StatusFailed, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestStatusCanReach(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to DistributionStatus
		ok       bool
	}{
		{StatusPending, StatusPending, true},
		{StatusPending, StatusReady, true},
		{StatusPending, StatusDelivered, true},
		{StatusFailed, StatusReady, true},
		{StatusValidated, StatusFailed, true},
		{StatusReady, StatusReady, true},
		{StatusReady, StatusValidated, false},
		{StatusReady, StatusFailed, false},
		{StatusReady, StatusPending, false},
		{StatusDelivered, StatusValidated, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanReach(tt.to); got != tt.ok {
			t.Errorf("%s reaches %s = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestApplyReadiness(t *testing.T) {
	t.Parallel()

	all := PlatformReadiness{Netflix: true, Amazon: true, FAST: true}

	t.Run("pending to ready via validated", func(t *testing.T) {
		m := NewMovieNode("1", "Heat", testNow)
		if err := m.ApplyReadiness(all, StatusReady, testNow); err != nil {
			t.Fatalf("ApplyReadiness: %v", err)
		}
		if m.DistributionStatus != StatusReady {
			t.Errorf("status = %s, want ready", m.DistributionStatus)
		}
	})

	t.Run("ready refused without all platforms", func(t *testing.T) {
		m := NewMovieNode("1", "Heat", testNow)
		err := m.ApplyReadiness(PlatformReadiness{Netflix: true}, StatusReady, testNow)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
		if m.DistributionStatus != StatusPending {
			t.Errorf("status = %s, want pending", m.DistributionStatus)
		}
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		m := NewMovieNode("1", "Heat", testNow)
		m.DistributionStatus = StatusDelivered
		if err := m.ApplyReadiness(PlatformReadiness{}, StatusFailed, testNow); err != nil {
			t.Fatalf("ApplyReadiness: %v", err)
		}
		if m.DistributionStatus != StatusDelivered {
			t.Errorf("status = %s, want delivered", m.DistributionStatus)
		}
	})

	t.Run("ready keeps status and flags when a platform drops", func(t *testing.T) {
		m := NewMovieNode("1", "Heat", testNow)
		if err := m.ApplyReadiness(all, StatusReady, testNow); err != nil {
			t.Fatal(err)
		}
		later := testNow.Add(time.Hour)
		err := m.ApplyReadiness(PlatformReadiness{Netflix: true}, StatusValidated, later)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
		if m.DistributionStatus != StatusReady || !m.PlatformReadiness.All() || !m.UpdatedAt.Equal(testNow) {
			t.Errorf("movie changed: %s %+v %v", m.DistributionStatus, m.PlatformReadiness, m.UpdatedAt)
		}
	})

	t.Run("failed then revalidated", func(t *testing.T) {
		m := NewMovieNode("1", "Heat", testNow)
		if err := m.ApplyReadiness(PlatformReadiness{}, StatusFailed, testNow); err != nil {
			t.Fatal(err)
		}
		if err := m.ApplyReadiness(PlatformReadiness{Amazon: true}, StatusValidated, testNow); err != nil {
			t.Fatal(err)
		}
		if m.DistributionStatus != StatusValidated || !m.PlatformReadiness.Amazon {
			t.Errorf("got %s %+v", m.DistributionStatus, m.PlatformReadiness)
		}
	})
}

func TestPlatformReadiness(t *testing.T) {
	t.Parallel()

	var r PlatformReadiness
	r.Set(PlatformNetflix, true)
	r.Set(PlatformFAST, true)

	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}
	if r.All() {
		t.Error("All should be false")
	}
	ready := r.Ready()
	if len(ready) != 2 || ready[0] != PlatformNetflix || ready[1] != PlatformFAST {
		t.Errorf("Ready = %v", ready)
	}
}

func TestProcessedMovie_Entities(t *testing.T) {
	t.Parallel()

	p := &ProcessedMovie{
		Movie:     NewMovieNode("1", "Heat", testNow),
		Genres:    []*EntityNode{NewEntityNode(NodeGenre, "80", "Crime", testNow)},
		Languages: []*EntityNode{NewEntityNode(NodeLanguage, "en", "English", testNow)},
	}
	ents := p.Entities()
	if len(ents) != 2 || ents[0].Type != NodeGenre || ents[1].Type != NodeLanguage {
		t.Errorf("Entities = %+v", ents)
	}
	if names := p.GenreNames(); len(names) != 1 || names[0] != "Crime" {
		t.Errorf("GenreNames = %v", names)
	}
}

func TestNodeType_Collection(t *testing.T) {
	t.Parallel()

	for _, nt := range append([]NodeType{NodeMovie}, EntityTypes...) {
		if nt.Collection() == "" {
			t.Errorf("%s has no collection", nt)
		}
	}
	if NodeType("bogus").Collection() != "" {
		t.Error("unknown type should map to empty collection")
	}
}
