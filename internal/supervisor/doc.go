// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package supervisor provides process supervision for the serve mode using suture v4.

# Overview

	RootSupervisor ("mediagraph")
	├── PipelineSupervisor ("pipeline-layer")
	│   └── IngestService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the HTTP server does not interrupt a running ingestion, and a
crashing ingestion service does not take the status endpoints down with it.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddPipelineService(services.NewIngestService(orchestrator, services.WithInterval(24*time.Hour)))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	<-errCh

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning nil stops the service for good, returning an error restarts it,
and services return promptly once ctx is canceled.

The entity store, DuckDB and the NATS connection are not supervised. They
are libraries owned by main and closed after the tree stops.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    logging.Warn().Str("service", svc.Name).Msg("Service did not stop")
	}
*/
package supervisor
