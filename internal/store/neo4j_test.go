// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package store

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mediagraph/internal/models"
)

func TestBuildStatements(t *testing.T) {
	pm := newProcessed("1", "Heat", 10, "Action")
	country := models.NewEntityNode(models.NodeCountry, "US", "United States of America", testNow)
	country.ISOCode = "US"
	countryEdge := models.NewEntityEdge("1", country, 0, true, testNow)

	right := models.NewDistributionRightEdge("1", models.DistributionRight{
		Territory:   "US",
		Platform:    models.PlatformFAST,
		ValidFrom:   testNow,
		ValidTo:     testNow.Add(365 * 24 * time.Hour),
		LicenseType: "avod",
		Status:      models.StatusReady,
	}, testNow)
	similar := models.NewSimilarityEdge("1", "2", 0.93, "embedding_cosine", testNow)

	stmts := BuildStatements(MirrorBatch{
		Movies:   []*models.MovieNode{pm.Movie},
		Entities: []*models.EntityNode{pm.Genres[0], country},
		Edges:    []*models.Hyperedge{pm.Edges[0], countryEdge, right, similar},
	})

	var cyphers []string
	for _, s := range stmts {
		cyphers = append(cyphers, s.Cypher)
		if _, ok := s.Params["rows"]; !ok {
			t.Errorf("statement without rows param: %s", s.Cypher)
		}
	}
	joined := strings.Join(cyphers, "\n")

	for _, want := range []string{
		"MERGE (n:Movie {id: row.id})",
		"MERGE (n:Country {id: row.id})",
		"MERGE (n:Genre {id: row.id})",
		"MATCH (t:Genre {id: row.targetId}) MERGE (m)-[r:GENRE_OF]->(t)",
		"MATCH (t:Country {id: row.targetId}) MERGE (m)-[r:PRODUCED_IN]->(t)",
		"MATCH (t:Movie {id: row.targetId}) MERGE (m)-[r:SIMILAR_TO]->(t)",
		"MERGE (d:DistributionRight {id: row.id})",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing statement containing %q in:\n%s", want, joined)
		}
	}
	if len(stmts) != 7 {
		t.Errorf("statements = %d, want 7", len(stmts))
	}
	// Nodes must be merged before relationships reference them.
	if !strings.Contains(stmts[0].Cypher, ":Movie") {
		t.Errorf("first statement = %s, want movies", stmts[0].Cypher)
	}

	rows := stmts[len(stmts)-1].Params["rows"].([]map[string]any)
	props := rows[0]["props"].(map[string]any)
	if props["platform"] != "fast" || props["validFrom"] != "2026-03-01T12:00:00Z" {
		t.Errorf("right props = %v", props)
	}
}

func TestBuildStatements_Empty(t *testing.T) {
	if got := BuildStatements(MirrorBatch{}); len(got) != 0 {
		t.Errorf("BuildStatements(empty) = %v", got)
	}
	if !(MirrorBatch{}).Empty() {
		t.Error("Empty() = false for empty batch")
	}
}
