// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package ingest

import "time"

// Phase is a step of an ingestion run. Runs move through the phases in
// declaration order; failed ends a run early.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseProcessing Phase = "processing"
	PhaseEmbeddings Phase = "embeddings"
	PhaseStoring    Phase = "storing"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Progress is a point-in-time report pushed to the progress callback.
type Progress struct {
	RunID string    `json:"runId"`
	Phase Phase     `json:"phase"`
	Done  int       `json:"done"`
	Total int       `json:"total"`
	At    time.Time `json:"at"`
}

// Percent returns Done/Total as a percentage, or 0 when Total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// ProgressFunc receives progress reports. It runs on the pipeline goroutine
// and must not block; its return has no effect on the run.
type ProgressFunc func(Progress)

// progressMeter fires a ProgressFunc every n items and at the end of a phase.
type progressMeter struct {
	fn    ProgressFunc
	every int
	next  int
	base  Progress
	now   func() time.Time
}

func newProgressMeter(fn ProgressFunc, every int, base Progress, now func() time.Time) *progressMeter {
	if every <= 0 {
		every = 1000
	}
	return &progressMeter{fn: fn, every: every, next: every, base: base, now: now}
}

// update reports when done crossed the next checkpoint or reached total.
func (m *progressMeter) update(done int) {
	if m.fn == nil {
		return
	}
	if done < m.next && done != m.base.Total {
		return
	}
	for m.next <= done {
		m.next += m.every
	}
	p := m.base
	p.Done = done
	p.At = m.now()
	m.fn(p)
}
