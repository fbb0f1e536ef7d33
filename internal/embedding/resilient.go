// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mediagraph/internal/cache"
	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/retry"
)

const breakerName = "embedding-api"

// ResilientOptions configures ResilientProvider.
type ResilientOptions struct {
	Retry     retry.Policy
	CacheSize int // 0 disables the vector cache

	// Breaker settings; zero values use the defaults below.
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerTimeout      time.Duration
}

// ResilientProvider guards a Provider with a circuit breaker, bounded retry
// and an LRU vector cache. A dead provider trips the breaker so later batches
// fail immediately instead of waiting out every retry.
type ResilientProvider struct {
	inner  Provider
	cb     *gobreaker.CircuitBreaker[[][]float32]
	policy retry.Policy
	cache  *cache.LRU[[]float32]
}

// NewResilientProvider wraps inner.
func NewResilientProvider(inner Provider, opts ResilientOptions) *ResilientProvider {
	minRequests := opts.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	ratio := opts.BreakerFailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	timeout := opts.BreakerTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= ratio
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		// Permanent client errors say nothing about provider health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Retryable()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	var lru *cache.LRU[[]float32]
	if opts.CacheSize > 0 {
		lru = cache.NewLRU[[]float32](opts.CacheSize, 0)
	}

	return &ResilientProvider{inner: inner, cb: cb, policy: opts.Retry, cache: lru}
}

// Model implements Provider.
func (r *ResilientProvider) Model() string {
	return r.inner.Model()
}

// State returns the circuit breaker state.
func (r *ResilientProvider) State() gobreaker.State {
	return r.cb.State()
}

// Embed implements Provider. Cached texts are served locally and only the
// misses are sent upstream.
func (r *ResilientProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		if v, ok := r.lookup(t); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if hits := len(texts) - len(missTexts); hits > 0 {
		metrics.EmbeddingsTotal.WithLabelValues(metrics.ResultCached).Add(float64(hits))
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	start := time.Now()
	var vecs [][]float32
	err := retry.Do(ctx, "embed", r.policy, func() error {
		var callErr error
		vecs, callErr = r.execute(ctx, missTexts)
		if callErr == nil {
			return nil
		}
		if !retryable(callErr) {
			return retry.Permanent(callErr)
		}
		return callErr
	})
	metrics.EmbeddingBatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingsTotal.WithLabelValues(metrics.ResultFailure).Add(float64(len(missTexts)))
		return nil, err
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		r.store(missTexts[j], vecs[j])
	}
	metrics.EmbeddingsTotal.WithLabelValues(metrics.ResultSuccess).Add(float64(len(missTexts)))
	return out, nil
}

func (r *ResilientProvider) execute(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := r.cb.Execute(func() ([][]float32, error) {
		v, err := r.inner.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if err := checkCount(texts, v); err != nil {
			return nil, err
		}
		return v, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, metrics.ResultRejected).Inc()
			logging.Ctx(ctx).Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, metrics.ResultFailure).Inc()
			counts := r.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, metrics.ResultSuccess).Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)
	return vecs, nil
}

// retryable is false for an open breaker, a result mismatch, a canceled
// context and client-side API errors.
func retryable(err error) bool {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, ErrResultMismatch),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

func (r *ResilientProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(r.inner.Model() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (r *ResilientProvider) lookup(text string) ([]float32, bool) {
	if r.cache == nil {
		return nil, false
	}
	return r.cache.Get(r.cacheKey(text))
}

func (r *ResilientProvider) store(text string, v []float32) {
	if r.cache == nil {
		return
	}
	r.cache.Add(r.cacheKey(text), v)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
