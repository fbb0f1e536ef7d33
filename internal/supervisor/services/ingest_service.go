// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/mediagraph/internal/ingest"
	"github.com/tomtom215/mediagraph/internal/logging"
)

// Runner is the part of *ingest.Orchestrator the service drives.
type Runner interface {
	Run(ctx context.Context) (*ingest.RunResult, error)
	IsRunning() bool
	Stop() error
}

// IngestService runs ingestion under the supervisor.
//
// Runs start:
//  1. once when the service starts, if autoStart is set
//  2. every interval, if interval > 0
//  3. whenever Trigger is called
//
// Runs are sequential. A failed run is logged and does not stop the
// service; the next tick or trigger starts a fresh run.
type IngestService struct {
	runner    Runner
	name      string
	autoStart bool
	interval  time.Duration
	trigger   chan struct{}
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithInterval re-runs ingestion every d. Zero disables periodic runs.
func WithInterval(d time.Duration) IngestOption {
	return func(s *IngestService) { s.interval = d }
}

// WithoutAutoStart waits for a tick or trigger before the first run.
func WithoutAutoStart() IngestOption {
	return func(s *IngestService) { s.autoStart = false }
}

// NewIngestService creates the ingestion service wrapper.
func NewIngestService(runner Runner, opts ...IngestOption) *IngestService {
	s := &IngestService{
		runner:    runner,
		name:      "ingest",
		autoStart: true,
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger queues a run. It returns false when a run is already in progress
// or already queued.
func (s *IngestService) Trigger() bool {
	if s.runner.IsRunning() {
		return false
	}
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	if s.autoStart {
		s.runOnce(ctx)
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
		logging.Info().Dur("interval", s.interval).Msg("Periodic ingestion scheduled")
	}

	for {
		select {
		case <-ctx.Done():
			if s.runner.IsRunning() {
				if err := s.runner.Stop(); err != nil {
					logging.Warn().Err(err).Msg("Failed to stop ingestion run")
				}
			}
			return ctx.Err()
		case <-tick:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *IngestService) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.runner.Run(ctx)
	switch {
	case err == nil:
		logging.Info().
			Str("run_id", result.Stats.RunID).
			Int("stored", result.Stats.Stored).
			Int("errors", result.Stats.Errors).
			Msg("Ingestion run completed")
	case errors.Is(err, ingest.ErrRunInProgress):
		logging.Warn().Msg("Ingestion run skipped, another run is in progress")
	case ctx.Err() != nil:
		logging.Info().Msg("Ingestion run canceled due to shutdown")
	default:
		logging.Error().Err(err).Msg("Ingestion run failed")
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *IngestService) String() string {
	return s.name
}
