// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/tomtom215/mediagraph/internal/config"
	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/models"
)

// MirrorBatch is what one committed store batch projects into the graph.
type MirrorBatch struct {
	Movies   []*models.MovieNode
	Entities []*models.EntityNode
	Edges    []*models.Hyperedge
}

// Empty reports whether there is nothing to mirror.
func (b MirrorBatch) Empty() bool {
	return len(b.Movies) == 0 && len(b.Entities) == 0 && len(b.Edges) == 0
}

// GraphMirror receives committed batches. The document store stays the
// system of record.
type GraphMirror interface {
	Apply(ctx context.Context, batch MirrorBatch) error
	Close(ctx context.Context) error
}

// Statement is one parameterized Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
}

var nodeLabels = map[models.NodeType]string{
	models.NodeMovie:    "Movie",
	models.NodeGenre:    "Genre",
	models.NodeCompany:  "ProductionCompany",
	models.NodeCountry:  "Country",
	models.NodeLanguage: "Language",
	models.NodeKeyword:  "Keyword",
}

// BuildStatements renders a batch as MERGE statements, one UNWIND per node
// label or relationship type. Binary hyperedges become relationships;
// distribution rights, which join a movie, a territory and a platform, become
// DistributionRight nodes linked to their movie.
func BuildStatements(b MirrorBatch) []Statement {
	var out []Statement

	if len(b.Movies) > 0 {
		rows := make([]map[string]any, 0, len(b.Movies))
		for _, m := range b.Movies {
			rows = append(rows, map[string]any{"id": m.ID, "props": movieProps(m)})
		}
		out = append(out, Statement{
			Cypher: "UNWIND $rows AS row MERGE (n:Movie {id: row.id}) SET n += row.props",
			Params: map[string]any{"rows": rows},
		})
	}

	byType := make(map[models.NodeType][]map[string]any)
	for _, e := range b.Entities {
		byType[e.Type] = append(byType[e.Type], map[string]any{"id": e.ID, "props": entityProps(e)})
	}
	for _, t := range sortedNodeTypes(byType) {
		out = append(out, Statement{
			Cypher: fmt.Sprintf("UNWIND $rows AS row MERGE (n:%s {id: row.id}) SET n += row.props", nodeLabels[t]),
			Params: map[string]any{"rows": byType[t]},
		})
	}

	type relKey struct {
		edge   models.EdgeType
		target models.NodeType
	}
	rels := make(map[relKey][]map[string]any)
	var rights []map[string]any
	for _, e := range b.Edges {
		if e.Type == models.EdgeDistributionRight {
			rights = append(rights, map[string]any{"id": e.ID, "movieId": e.MovieID, "props": rightProps(e)})
			continue
		}
		if _, ok := nodeLabels[e.TargetType]; !ok || e.TargetID == "" {
			continue
		}
		k := relKey{edge: e.Type, target: e.TargetType}
		rels[k] = append(rels[k], map[string]any{
			"movieId":  e.MovieID,
			"targetId": e.TargetID,
			"props":    edgeProps(e),
		})
	}

	keys := make([]relKey, 0, len(rels))
	for k := range rels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].edge != keys[j].edge {
			return keys[i].edge < keys[j].edge
		}
		return keys[i].target < keys[j].target
	})
	for _, k := range keys {
		out = append(out, Statement{
			Cypher: fmt.Sprintf(
				"UNWIND $rows AS row MATCH (m:Movie {id: row.movieId}) MATCH (t:%s {id: row.targetId}) MERGE (m)-[r:%s]->(t) SET r += row.props",
				nodeLabels[k.target], k.edge),
			Params: map[string]any{"rows": rels[k]},
		})
	}

	if len(rights) > 0 {
		out = append(out, Statement{
			Cypher: "UNWIND $rows AS row MATCH (m:Movie {id: row.movieId}) MERGE (d:DistributionRight {id: row.id}) SET d += row.props MERGE (m)-[:DISTRIBUTION_RIGHT]->(d)",
			Params: map[string]any{"rows": rights},
		})
	}
	return out
}

func sortedNodeTypes(m map[models.NodeType][]map[string]any) []models.NodeType {
	out := make([]models.NodeType, 0, len(m))
	for t := range m {
		if _, ok := nodeLabels[t]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func graphTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func movieProps(m *models.MovieNode) map[string]any {
	return map[string]any{
		"title":              m.Title,
		"releaseYear":        int64(m.ReleaseYear),
		"runtime":            int64(m.Runtime),
		"voteAverage":        m.VoteAverage,
		"voteCount":          int64(m.VoteCount),
		"popularity":         m.Popularity,
		"originalLanguage":   m.OriginalLanguage,
		"distributionStatus": string(m.DistributionStatus),
		"netflixReady":       m.PlatformReadiness.Netflix,
		"amazonReady":        m.PlatformReadiness.Amazon,
		"fastReady":          m.PlatformReadiness.FAST,
		"hasEmbedding":       m.HasEmbedding(),
		"updatedAt":          graphTime(m.UpdatedAt),
	}
}

func entityProps(e *models.EntityNode) map[string]any {
	props := map[string]any{
		"name":       e.Name,
		"movieCount": int64(e.MovieCount),
		"updatedAt":  graphTime(e.UpdatedAt),
	}
	if e.ISOCode != "" {
		props["isoCode"] = e.ISOCode
	}
	if e.Locale != "" {
		props["locale"] = e.Locale
	}
	return props
}

func edgeProps(e *models.Hyperedge) map[string]any {
	props := map[string]any{
		"id":      e.ID,
		"ordinal": int64(e.Ordinal),
		"primary": e.Primary,
	}
	if e.Type == models.EdgeSimilarTo {
		props["score"] = e.Score
		props["similarityType"] = e.SimilarityType
	}
	return props
}

func rightProps(e *models.Hyperedge) map[string]any {
	props := map[string]any{
		"territory":        e.Territory,
		"platform":         string(e.Platform),
		"licenseType":      e.LicenseType,
		"distributionType": e.DistributionType,
		"status":           string(e.Status),
	}
	if e.ValidFrom != nil {
		props["validFrom"] = graphTime(*e.ValidFrom)
	}
	if e.ValidTo != nil {
		props["validTo"] = graphTime(*e.ValidTo)
	}
	return props
}

// Neo4jMirror applies batches to Neo4j or Memgraph over Bolt.
type Neo4jMirror struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jMirror connects and verifies connectivity.
func NewNeo4jMirror(ctx context.Context, cfg *config.GraphConfig) (*Neo4jMirror, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph database unreachable at %s: %w", cfg.URI, err)
	}

	logging.Info().Str("uri", cfg.URI).Str("database", cfg.Database).Msg("Graph mirror connected")
	return &Neo4jMirror{driver: driver, database: cfg.Database}, nil
}

// Apply implements GraphMirror. The whole batch runs in one write
// transaction.
func (m *Neo4jMirror) Apply(ctx context.Context, batch MirrorBatch) error {
	if batch.Empty() {
		return nil
	}
	stmts := BuildStatements(batch)

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, s := range stmts {
			result, err := tx.Run(ctx, s.Cypher, s.Params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to mirror batch to graph: %w", err)
	}
	return nil
}

// Close implements GraphMirror.
func (m *Neo4jMirror) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}
