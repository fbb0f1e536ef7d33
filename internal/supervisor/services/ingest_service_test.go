// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/mediagraph/internal/ingest"
	"github.com/tomtom215/mediagraph/internal/models"
)

// mockRunner implements Runner. Each Run reports on runs and, when block is
// set, waits for release or cancellation.
type mockRunner struct {
	mu         sync.Mutex
	running    bool
	calls      int
	stopCalled bool
	err        error
	block      bool
	runs       chan int
	release    chan struct{}
}

func newMockRunner() *mockRunner {
	return &mockRunner{runs: make(chan int, 16), release: make(chan struct{})}
}

func (m *mockRunner) Run(ctx context.Context) (*ingest.RunResult, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.running = true
	block, err := m.block, m.err
	m.mu.Unlock()

	m.runs <- n
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	if block {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &ingest.RunResult{Success: true, Phase: ingest.PhaseComplete, Stats: models.NewRunStats("run", time.Now())}, nil
}

func (m *mockRunner) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *mockRunner) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	if !m.running {
		return errors.New("no ingestion run in progress")
	}
	return nil
}

func (m *mockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitRun(t *testing.T, m *mockRunner) int {
	t.Helper()
	select {
	case n := <-m.runs:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
		return 0
	}
}

func TestIngestService_Interface(t *testing.T) {
	var _ suture.Service = (*IngestService)(nil)
	var _ Runner = (*ingest.Orchestrator)(nil)
}

func TestIngestService_AutoStart(t *testing.T) {
	runner := newMockRunner()
	svc := NewIngestService(runner)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	waitRun(t, runner)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if runner.Calls() != 1 {
		t.Errorf("runs = %d, want 1", runner.Calls())
	}
}

func TestIngestService_FailedRunKeepsServing(t *testing.T) {
	runner := newMockRunner()
	runner.err = errors.New("source unavailable")
	svc := NewIngestService(runner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	waitRun(t, runner)
	// Wait for the failed run to return before triggering again.
	for runner.IsRunning() {
		time.Sleep(5 * time.Millisecond)
	}
	if !svc.Trigger() {
		t.Fatal("Trigger() = false after a failed run")
	}
	if n := waitRun(t, runner); n != 2 {
		t.Errorf("run number = %d, want 2", n)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestIngestService_Interval(t *testing.T) {
	runner := newMockRunner()
	svc := NewIngestService(runner, WithoutAutoStart(), WithInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Serve(ctx) //nolint:errcheck

	waitRun(t, runner)
	waitRun(t, runner)
}

func TestIngestService_Trigger(t *testing.T) {
	t.Run("queues one run", func(t *testing.T) {
		runner := newMockRunner()
		svc := NewIngestService(runner, WithoutAutoStart())

		if !svc.Trigger() {
			t.Fatal("first Trigger() = false")
		}
		if svc.Trigger() {
			t.Error("second Trigger() queued a duplicate run")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go svc.Serve(ctx) //nolint:errcheck

		waitRun(t, runner)
	})

	t.Run("rejected while running", func(t *testing.T) {
		runner := newMockRunner()
		runner.block = true
		svc := NewIngestService(runner)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		waitRun(t, runner)

		if svc.Trigger() {
			t.Error("Trigger() accepted during a run")
		}

		cancel()
		<-errCh
		if runner.Calls() != 1 {
			t.Errorf("runs = %d, want 1", runner.Calls())
		}
	})
}

func TestIngestService_String(t *testing.T) {
	if got := NewIngestService(newMockRunner()).String(); got != "ingest" {
		t.Errorf("String() = %q, want ingest", got)
	}
}
