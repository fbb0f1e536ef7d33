// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// checkpointKey is the BadgerDB key for the ingestion checkpoint. It has no
// "/" so it never falls inside a document store collection.
const checkpointKey = "ingest:checkpoint"

// Checkpoint marks how far the last run got through its ranked movies.
type Checkpoint struct {
	RunID       string    `json:"runId"`
	LastMovieID string    `json:"lastMovieId"`
	Stored      int       `json:"stored"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProgressTracker persists the ingestion checkpoint between runs.
type ProgressTracker interface {
	// Save persists the checkpoint.
	Save(ctx context.Context, cp *Checkpoint) error

	// Load returns the last checkpoint, or nil, nil when there is none.
	Load(ctx context.Context) (*Checkpoint, error)

	// Clear removes the checkpoint so the next run starts fresh.
	Clear(ctx context.Context) error
}

// BadgerProgress implements ProgressTracker using BadgerDB for persistence.
// It can share the document store's database.
type BadgerProgress struct {
	db *badger.DB
}

// NewBadgerProgress creates a tracker on db.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// Save persists the checkpoint to BadgerDB.
func (p *BadgerProgress) Save(_ context.Context, cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(checkpointKey), data)
	})
}

// Load retrieves the last checkpoint from BadgerDB.
func (p *BadgerProgress) Load(_ context.Context) (*Checkpoint, error) {
	var cp Checkpoint
	found := false

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(checkpointKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cp)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &cp, nil
}

// Clear removes the checkpoint from BadgerDB.
func (p *BadgerProgress) Clear(_ context.Context) error {
	return p.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(checkpointKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// InMemoryProgress implements ProgressTracker in memory, for tests and dry
// runs.
type InMemoryProgress struct {
	mu sync.Mutex
	cp *Checkpoint
}

// NewInMemoryProgress creates an empty tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{}
}

// Save stores a copy of cp.
func (p *InMemoryProgress) Save(_ context.Context, cp *Checkpoint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := *cp
	p.cp = &c
	return nil
}

// Load returns a copy of the stored checkpoint.
func (p *InMemoryProgress) Load(_ context.Context) (*Checkpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cp == nil {
		return nil, nil
	}
	c := *p.cp
	return &c, nil
}

// Clear removes the stored checkpoint.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cp = nil
	return nil
}
