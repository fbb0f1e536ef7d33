// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid distribution status transition")

// DistributionStatus tracks a movie through the delivery workflow.
type DistributionStatus string

const (
	StatusPending   DistributionStatus = "pending"
	StatusValidated DistributionStatus = "validated"
	StatusReady     DistributionStatus = "ready"
	StatusDelivered DistributionStatus = "delivered"
	StatusFailed    DistributionStatus = "failed"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []DistributionStatus{StatusPending, StatusValidated, StatusReady, StatusDelivered, StatusFailed}

var statusTransitions = map[DistributionStatus][]DistributionStatus{
	StatusPending:   {StatusValidated, StatusFailed},
	StatusValidated: {StatusValidated, StatusReady, StatusFailed},
	StatusFailed:    {StatusValidated, StatusReady, StatusFailed},
	StatusReady:     {StatusReady, StatusDelivered},
	StatusDelivered: nil,
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s DistributionStatus) CanTransitionTo(next DistributionStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanReach reports whether next is s itself or reachable from s through any
// number of transitions. A stored status may only move this way between runs.
func (s DistributionStatus) CanReach(next DistributionStatus) bool {
	if s == next {
		return true
	}
	seen := map[DistributionStatus]bool{s: true}
	queue := []DistributionStatus{s}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range statusTransitions[cur] {
			if n == next {
				return true
			}
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s DistributionStatus) Terminal() bool {
	return s == StatusDelivered
}

// Platform identifies a distribution target.
type Platform string

const (
	PlatformNetflix Platform = "netflix"
	PlatformAmazon  Platform = "amazon"
	PlatformFAST    Platform = "fast"
)

// AllPlatforms lists the supported platforms in reporting order.
var AllPlatforms = []Platform{PlatformNetflix, PlatformAmazon, PlatformFAST}

// PlatformReadiness holds the per-platform readiness flags.
type PlatformReadiness struct {
	Netflix bool `json:"netflix"`
	Amazon  bool `json:"amazon"`
	FAST    bool `json:"fast"`
}

// Get returns the flag for p.
func (r PlatformReadiness) Get(p Platform) bool {
	switch p {
	case PlatformNetflix:
		return r.Netflix
	case PlatformAmazon:
		return r.Amazon
	case PlatformFAST:
		return r.FAST
	default:
		return false
	}
}

// Set updates the flag for p.
func (r *PlatformReadiness) Set(p Platform, ready bool) {
	switch p {
	case PlatformNetflix:
		r.Netflix = ready
	case PlatformAmazon:
		r.Amazon = ready
	case PlatformFAST:
		r.FAST = ready
	}
}

// Count returns how many platforms are ready.
func (r PlatformReadiness) Count() int {
	n := 0
	for _, p := range AllPlatforms {
		if r.Get(p) {
			n++
		}
	}
	return n
}

// All reports whether every platform is ready.
func (r PlatformReadiness) All() bool {
	return r.Count() == len(AllPlatforms)
}

// Ready returns the ready platforms in reporting order.
func (r PlatformReadiness) Ready() []Platform {
	out := make([]Platform, 0, len(AllPlatforms))
	for _, p := range AllPlatforms {
		if r.Get(p) {
			out = append(out, p)
		}
	}
	return out
}

// Severity grades a validation error.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
)

// ValidationIssue is a rule violation that blocks delivery.
type ValidationIssue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationWarning is a non-blocking recommendation.
type ValidationWarning struct {
	Field          string `json:"field"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

// PlatformValidation is the full-validation result for one platform.
type PlatformValidation struct {
	Platform    Platform            `json:"platform"`
	Valid       bool                `json:"valid"`
	Score       int                 `json:"score"`
	Errors      []ValidationIssue   `json:"errors,omitempty"`
	Warnings    []ValidationWarning `json:"warnings,omitempty"`
	ValidatedAt time.Time           `json:"validatedAt"`
}

// ApplyReadiness stores readiness flags and moves the movie to status.
// A pending movie reaches ready by way of validated. A delivered movie keeps
// its status; only the flags are refreshed. When status cannot be reached from
// the current one (a ready movie losing a platform) the movie is left
// untouched and ErrInvalidTransition is returned.
func (m *MovieNode) ApplyReadiness(r PlatformReadiness, status DistributionStatus, now time.Time) error {
	if status == StatusReady && !r.All() {
		return fmt.Errorf("%w: ready with %d/%d platforms", ErrInvalidTransition, r.Count(), len(AllPlatforms))
	}
	cur := m.DistributionStatus
	if cur == "" {
		cur = StatusPending
	}
	switch {
	case cur.Terminal():
	case cur.CanReach(status):
		cur = status
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, status)
	}
	m.DistributionStatus = cur
	m.PlatformReadiness = r
	m.UpdatedAt = now
	return nil
}
