// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package models

import "time"

// RunStats summarizes one ingestion run. It is persisted in the stats
// collection and published when the run completes.
type RunStats struct {
	RunID               string                     `json:"runId"`
	TotalProcessed      int                        `json:"totalProcessed"`
	SuccessfulMovies    int                        `json:"successfulMovies"`
	Stored              int                        `json:"stored"`
	EmbeddingsGenerated int                        `json:"embeddingsGenerated"`
	Errors              int                        `json:"errors"`
	RecordsSkipped      int                        `json:"recordsSkipped"`
	EntityCounts        map[NodeType]int           `json:"entityCounts"`
	EdgesCreated        int                        `json:"edgesCreated"`
	PlatformReady       map[Platform]int           `json:"platformReady"`
	StatusCounts        map[DistributionStatus]int `json:"statusCounts"`
	StartedAt           time.Time                  `json:"startedAt"`
	CompletedAt         time.Time                  `json:"completedAt,omitempty"`
	Duration            time.Duration              `json:"duration"`
}

// NewRunStats returns zeroed statistics with initialized maps.
func NewRunStats(runID string, started time.Time) *RunStats {
	return &RunStats{
		RunID:         runID,
		EntityCounts:  make(map[NodeType]int),
		PlatformReady: make(map[Platform]int),
		StatusCounts:  make(map[DistributionStatus]int),
		StartedAt:     started,
	}
}

// MoviesPerSecond returns throughput over the run duration.
func (s *RunStats) MoviesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.SuccessfulMovies) / s.Duration.Seconds()
}

// StoreAggregates is a point-in-time summary computed from the store.
type StoreAggregates struct {
	Collections   map[string]int             `json:"collections"`
	PlatformReady map[Platform]int           `json:"platformReady"`
	StatusCounts  map[DistributionStatus]int `json:"statusCounts"`
	WithEmbedding int                        `json:"withEmbedding"`
}
