// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/mediagraph/internal/ingest"
	"github.com/tomtom215/mediagraph/internal/models"
	"github.com/tomtom215/mediagraph/internal/store"
)

// IngestController is the run control surface of *ingest.Orchestrator.
type IngestController interface {
	IsRunning() bool
	Phase() (string, ingest.Phase)
	LastResult() *ingest.RunResult
	Stop() error
}

// RunTrigger queues an ingestion run. *services.IngestService implements it.
type RunTrigger interface {
	Trigger() bool
}

// CatalogStats reads persisted run statistics and store aggregates.
// *store.EntityStore implements it.
type CatalogStats interface {
	LatestRunStats(ctx context.Context) (*models.RunStats, error)
	Aggregates(ctx context.Context) (*models.StoreAggregates, error)
}

// Handler holds the dependencies of the HTTP handlers. trigger may be nil,
// in which case runs cannot be started over HTTP.
type Handler struct {
	ingest    IngestController
	trigger   RunTrigger
	stats     CatalogStats
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(ctrl IngestController, trigger RunTrigger, stats CatalogStats) *Handler {
	return &Handler{
		ingest:    ctrl,
		trigger:   trigger,
		stats:     stats,
		startTime: time.Now(),
	}
}

// IngestStatusResponse is the body of GET /api/v1/ingest/status.
type IngestStatusResponse struct {
	Running bool              `json:"running"`
	RunID   string            `json:"runId,omitempty"`
	Phase   ingest.Phase      `json:"phase"`
	Last    *ingest.RunResult `json:"last,omitempty"`
	// Persisted holds the latest stored run statistics when this process
	// has not finished a run yet.
	Persisted *models.RunStats `json:"persisted,omitempty"`
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]any{
		"alive":   true,
		"running": h.ingest.IsRunning(),
		"uptime":  time.Since(h.startTime).Seconds(),
	})
}

// IngestStatus reports the current phase and the last run's result.
func (h *Handler) IngestStatus(w http.ResponseWriter, r *http.Request) {
	runID, phase := h.ingest.Phase()
	resp := IngestStatusResponse{
		Running: h.ingest.IsRunning(),
		RunID:   runID,
		Phase:   phase,
		Last:    h.ingest.LastResult(),
	}

	if resp.Last == nil && h.stats != nil {
		saved, err := h.stats.LatestRunStats(r.Context())
		switch {
		case err == nil:
			resp.Persisted = saved
		case !errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read run statistics", err)
			return
		}
	}

	respondData(w, http.StatusOK, resp)
}

// Aggregates reports collection counts and readiness totals from the store.
func (h *Handler) Aggregates(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Store statistics are not available", nil)
		return
	}
	agg, err := h.stats.Aggregates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to compute aggregates", err)
		return
	}
	respondData(w, http.StatusOK, agg)
}

// StartRun queues an ingestion run.
func (h *Handler) StartRun(w http.ResponseWriter, _ *http.Request) {
	if h.trigger == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Runs cannot be started in this mode", nil)
		return
	}
	if !h.trigger.Trigger() {
		respondError(w, http.StatusConflict, "RUN_IN_PROGRESS", ingest.ErrRunInProgress.Error(), nil)
		return
	}
	respondData(w, http.StatusAccepted, map[string]string{"message": "ingestion run queued"})
}

// StopRun cancels the active run.
func (h *Handler) StopRun(w http.ResponseWriter, _ *http.Request) {
	if !h.ingest.IsRunning() {
		respondError(w, http.StatusConflict, "NO_RUN", "No ingestion run in progress", nil)
		return
	}
	if err := h.ingest.Stop(); err != nil {
		respondError(w, http.StatusInternalServerError, "STOP_FAILED", "Failed to stop ingestion run", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "ingestion run stop requested"})
}
