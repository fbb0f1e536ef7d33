// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/mediagraph/internal/api"
	"github.com/tomtom215/mediagraph/internal/config"
	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/supervisor"
	"github.com/tomtom215/mediagraph/internal/supervisor/services"
)

const usage = `usage: mediagraph-ingest [run|serve]

  run    run one ingestion and exit (default)
  serve  run under the supervisor with the status/metrics HTTP server,
         re-running every ingest.interval when set

Configuration is read from CONFIG_PATH (or mediagraph.yaml) and the environment.`

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	mode := "run"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if mode != "run" && mode != "serve" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("mode", mode).
		Str("source_engine", cfg.Source.Engine).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Int("target_size", cfg.Ingest.TargetSize).
		Bool("graph_mirror", cfg.Graph.Enabled).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	c, err := build(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}

	var runErr error
	if mode == "serve" {
		runErr = serve(ctx, cfg, c)
	} else {
		runErr = runOnce(ctx, c)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := c.close(closeCtx); err != nil {
		logging.Error().Err(err).Msg("Error closing components")
	}

	if runErr != nil {
		logging.Error().Err(runErr).Msg("Ingestion failed")
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

// runOnce runs a single ingestion.
func runOnce(ctx context.Context, c *components) error {
	result, err := c.orchestrator.Run(ctx)
	if err != nil {
		return err
	}
	st := result.Stats
	logging.Info().
		Str("run_id", st.RunID).
		Int("processed", st.TotalProcessed).
		Int("stored", st.Stored).
		Int("errors", st.Errors).
		Int("embeddings", st.EmbeddingsGenerated).
		Int("edges", st.EdgesCreated).
		Float64("movies_per_second", st.MoviesPerSecond()).
		Msg("Ingestion summary")
	return nil
}

// serve runs the supervisor tree until ctx is canceled.
func serve(ctx context.Context, cfg *config.Config, c *components) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	ingestSvc := services.NewIngestService(c.orchestrator, services.WithInterval(cfg.Ingest.Interval))
	tree.AddPipelineService(ingestSvc)

	if cfg.Metrics.Enabled {
		server := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           api.NewRouter(api.NewHandler(c.orchestrator, ingestSvc, c.store)),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
