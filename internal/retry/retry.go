// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

// Package retry wraps bounded exponential backoff around calls to external
// collaborators (embedding provider, document store).
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/mediagraph/internal/logging"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy retries three times starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 10 * time.Second}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("max retry attempts reached")

// Do runs fn until it succeeds, returns a permanent error, the context is
// canceled, or MaxRetries retries have failed. The first attempt is not a
// retry, so fn runs at most MaxRetries+1 times.
func Do(ctx context.Context, op string, p Policy, fn func() error) error {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}

	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(eb, uint64(p.MaxRetries))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	operation := func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		return fn()
	}
	notify := func(err error, delay time.Duration) {
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Int("attempt", attempt).Int("max_retries", p.MaxRetries).Dur("delay", delay).Msg("Retry attempt")
	}

	err := backoff.RetryNotify(operation, b, notify)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	if attempt > p.MaxRetries {
		return fmt.Errorf("%s: %w: %w", op, ErrExhausted, err)
	}
	return err
}
