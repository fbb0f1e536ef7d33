// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package ingest

import (
	"math"
	"strings"
	"time"

	"github.com/tomtom215/mediagraph/internal/cache"
	"github.com/tomtom215/mediagraph/internal/models"
)

// SimilarityEmbeddingCosine is the similarityType of edges built from
// embedding vectors.
const SimilarityEmbeddingCosine = "embedding_cosine"

// RightsTerms are the license terms stamped on distribution-right edges.
type RightsTerms struct {
	Territories      []string
	Window           time.Duration
	LicenseType      string
	DistributionType string
}

// DistributionEdges returns one DISTRIBUTION_RIGHT hyperedge per ready
// platform and territory. The validity window opens at now.
func DistributionEdges(m *models.MovieNode, terms RightsTerms, now time.Time) []*models.Hyperedge {
	ready := m.PlatformReadiness.Ready()
	if len(ready) == 0 || len(terms.Territories) == 0 {
		return nil
	}
	window := terms.Window
	if window <= 0 {
		window = 365 * 24 * time.Hour
	}

	out := make([]*models.Hyperedge, 0, len(ready)*len(terms.Territories))
	for _, p := range ready {
		for _, territory := range terms.Territories {
			out = append(out, models.NewDistributionRightEdge(m.ID, models.DistributionRight{
				Territory:        strings.ToUpper(territory),
				Platform:         p,
				ValidFrom:        now,
				ValidTo:          now.Add(window),
				LicenseType:      terms.LicenseType,
				DistributionType: terms.DistributionType,
				Status:           m.DistributionStatus,
			}, now))
		}
	}
	return out
}

// RetiredRights closes the stored DISTRIBUTION_RIGHT edges of platforms the
// movie is no longer ready for. Each returned edge ends at now and carries the
// movie's current status; rights already out of force are left alone.
func RetiredRights(stored []*models.Hyperedge, m *models.MovieNode, now time.Time) []*models.Hyperedge {
	var out []*models.Hyperedge
	for _, e := range stored {
		if e.Type != models.EdgeDistributionRight || e.MovieID != m.ID {
			continue
		}
		if m.PlatformReadiness.Get(e.Platform) || !e.ValidAt(now) {
			continue
		}
		closed := *e
		to := now
		closed.ValidTo = &to
		closed.Status = m.DistributionStatus
		closed.UpdatedAt = now
		out = append(out, &closed)
	}
	return out
}

// SimilarityEdges links every embedded movie to its k nearest neighbours by
// cosine similarity, keeping only pairs scoring at least threshold. Movies
// without an embedding, or with a vector of a different length, are ignored.
func SimilarityEdges(movies []*models.MovieNode, k int, threshold float64, now time.Time) map[string][]*models.Hyperedge {
	out := make(map[string][]*models.Hyperedge)
	if k <= 0 {
		return out
	}

	type vec struct {
		id   string
		v    []float32
		norm float64
	}
	var vecs []vec
	dim := -1
	for _, m := range movies {
		if !m.HasEmbedding() {
			continue
		}
		if dim < 0 {
			dim = len(m.Embedding)
		}
		if len(m.Embedding) != dim {
			continue
		}
		n := norm(m.Embedding)
		if n == 0 {
			continue
		}
		vecs = append(vecs, vec{id: m.ID, v: m.Embedding, norm: n})
	}

	for i, a := range vecs {
		top := cache.NewTopK[struct{}](k)
		for j, b := range vecs {
			if i == j {
				continue
			}
			score := dot(a.v, b.v) / (a.norm * b.norm)
			if score < threshold {
				continue
			}
			top.Push(b.id, struct{}{}, score)
		}
		for _, s := range top.Sorted() {
			out[a.id] = append(out[a.id], models.NewSimilarityEdge(a.id, s.Key, round4(s.Score), SimilarityEmbeddingCosine, now))
		}
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
