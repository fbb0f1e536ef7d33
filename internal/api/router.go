// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

// Package api serves the operational HTTP surface: health, Prometheus
// metrics and ingestion run control.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/metrics"
)

// Run control requests allowed per client IP and window.
const (
	runControlRequests = 10
	runControlWindow   = time.Minute
)

// NewRouter builds the chi router for h.
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/v1/ingest/status
//	GET    /api/v1/ingest/aggregates
//	POST   /api/v1/ingest/runs
//	DELETE /api/v1/ingest/runs/current
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(instrument)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/ingest", func(r chi.Router) {
		r.Get("/status", h.IngestStatus)
		r.Get("/aggregates", h.Aggregates)
		r.Group(func(r chi.Router) {
			r.Use(runControlLimit())
			r.Post("/runs", h.StartRun)
			r.Delete("/runs/current", h.StopRun)
		})
	})

	return r
}

// runControlLimit rate limits run start and stop by client IP.
func runControlLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		runControlRequests,
		runControlWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many run control requests", nil)
		}),
	)
}

// instrument records request metrics by route pattern and logs each
// request at debug level.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), duration)

		logging.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", status).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}
