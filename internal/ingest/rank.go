// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package ingest

import (
	"sort"

	"github.com/tomtom215/mediagraph/internal/models"
	"github.com/tomtom215/mediagraph/internal/transform"
)

// RecordIterator is the pull interface Rank consumes. *source.Cursor
// implements it.
type RecordIterator interface {
	Next() bool
	Record() models.RawRecord
	Err() error
}

// RankOptions configures Rank.
type RankOptions struct {
	TargetSize   int
	MinVoteCount int
}

// RankStats reports what Rank saw.
type RankStats struct {
	Read        int
	Filtered    int
	Compactions int
}

type candidate struct {
	rec        models.RawRecord
	popularity float64
}

// Rank keeps records with at least MinVoteCount votes and positive
// popularity, and returns the TargetSize most popular of them, most popular
// first. Equal popularity keeps source order.
//
// The buffer never exceeds 2*TargetSize: whenever it fills, it is sorted and
// cut back to TargetSize. A record dropped at that point can never re-enter
// the final top TargetSize, so the result equals a full sort of every
// qualifying record.
func Rank(it RecordIterator, opts RankOptions) ([]models.RawRecord, RankStats, error) {
	var stats RankStats
	target := opts.TargetSize
	if target <= 0 {
		return nil, stats, nil
	}

	buf := make([]candidate, 0, 2*target)
	for it.Next() {
		rec := it.Record()
		stats.Read++

		pop := transform.ParseFloat(rec.Get(models.FieldPopularity))
		if transform.ParseInt(rec.Get(models.FieldVoteCount)) < opts.MinVoteCount || pop <= 0 {
			stats.Filtered++
			continue
		}

		buf = append(buf, candidate{rec: rec, popularity: pop})
		if len(buf) >= 2*target {
			buf = truncateRanked(buf, target)
			stats.Compactions++
		}
	}
	if err := it.Err(); err != nil {
		return nil, stats, err
	}

	buf = truncateRanked(buf, target)
	out := make([]models.RawRecord, len(buf))
	for i, c := range buf {
		out[i] = c.rec
	}
	return out, stats, nil
}

func truncateRanked(buf []candidate, n int) []candidate {
	sort.SliceStable(buf, func(i, j int) bool {
		return buf[i].popularity > buf[j].popularity
	})
	if len(buf) > n {
		buf = buf[:n]
	}
	return buf
}

// SkipThrough drops ranked records up to and including the one whose ID is
// lastID. When lastID is not among them, nothing is dropped.
func SkipThrough(ranked []models.RawRecord, lastID string) ([]models.RawRecord, int) {
	if lastID == "" {
		return ranked, 0
	}
	for i, rec := range ranked {
		if transform.NormalizeID(rec.Get(models.FieldID)) == lastID {
			return ranked[i+1:], i + 1
		}
	}
	return ranked, 0
}
