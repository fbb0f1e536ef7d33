// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// MemoryStore is a DocumentStore kept in process memory. Documents are held
// encoded so callers never share maps with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	data        map[string][]byte
	maxBatchOps int
}

// NewMemoryStore creates an empty store. maxBatchOps <= 0 uses
// DefaultMaxBatchOps.
func NewMemoryStore(maxBatchOps int) *MemoryStore {
	if maxBatchOps <= 0 {
		maxBatchOps = DefaultMaxBatchOps
	}
	return &MemoryStore{data: make(map[string][]byte), maxBatchOps: maxBatchOps}
}

// MaxBatchOps implements DocumentStore.
func (s *MemoryStore) MaxBatchOps() int {
	return s.maxBatchOps
}

// Close implements DocumentStore.
func (s *MemoryStore) Close() error {
	return nil
}

// Get implements DocumentStore.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.data[string(docKey(collection, id))]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return decodeDocument(raw)
}

// GetMany implements DocumentStore. Missing IDs are absent from the result.
func (s *MemoryStore) GetMany(ctx context.Context, collection string, ids []string) (map[string]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Document, len(ids))
	for _, id := range ids {
		raw, ok := s.data[string(docKey(collection, id))]
		if !ok {
			continue
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		out[id] = doc
	}
	return out, nil
}

// Query implements DocumentStore.
func (s *MemoryStore) Query(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Document, error) {
	docs, err := s.scan(ctx, collection, filters)
	if err != nil {
		return nil, err
	}
	sortDocuments(docs, order)
	return applyLimit(docs, limit), nil
}

// Count implements DocumentStore.
func (s *MemoryStore) Count(ctx context.Context, collection string, filters []Filter) (int, error) {
	docs, err := s.scan(ctx, collection, filters)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Commit implements DocumentStore. Every op is merged before any is written,
// so a failing op leaves the store untouched.
func (s *MemoryStore) Commit(ctx context.Context, ops []Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateOps(ops); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string][]byte, len(ops))
	for _, op := range ops {
		key := string(docKey(op.Collection, op.ID))
		var existing Document
		if raw, ok := staged[key]; ok {
			doc, err := decodeDocument(raw)
			if err != nil {
				return err
			}
			existing = doc
		} else if raw, ok := s.data[key]; ok {
			doc, err := decodeDocument(raw)
			if err != nil {
				return err
			}
			existing = doc
		}
		encoded, err := json.Marshal(Merge(existing, op.Doc))
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		staged[key] = encoded
	}
	for k, v := range staged {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) scan(ctx context.Context, collection string, filters []Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := collectionPrefix(collection)

	s.mu.RLock()
	keys := make([]string, 0)
	for k := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]Document, 0, len(keys))
	for _, k := range keys {
		doc, err := decodeDocument(s.data[k])
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		if matches(doc, filters) {
			out = append(out, doc)
		}
	}
	s.mu.RUnlock()
	return out, nil
}

func decodeDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
