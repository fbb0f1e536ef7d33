// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/metrics"
)

// BadgerStore is a DocumentStore backed by BadgerDB. Keys are
// "<collection>/<id>" and values are JSON documents.
type BadgerStore struct {
	db          *badger.DB
	maxBatchOps int
	ownsDB      bool
}

type badgerSettings struct {
	inMemory    bool
	maxBatchOps int
}

// BadgerOption configures OpenBadger.
type BadgerOption func(*badgerSettings)

// WithInMemory keeps the database off disk.
func WithInMemory() BadgerOption {
	return func(s *badgerSettings) { s.inMemory = true }
}

// WithMaxBatchOps bounds ops per Commit.
func WithMaxBatchOps(n int) BadgerOption {
	return func(s *badgerSettings) {
		if n > 0 {
			s.maxBatchOps = n
		}
	}
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string, opts ...BadgerOption) (*BadgerStore, error) {
	settings := badgerSettings{maxBatchOps: DefaultMaxBatchOps}
	for _, opt := range opts {
		opt(&settings)
	}

	bopts := badger.DefaultOptions(path)
	if settings.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	logging.Info().Str("path", path).Bool("in_memory", settings.inMemory).Msg("Document store opened")
	return &BadgerStore{db: db, maxBatchOps: settings.maxBatchOps, ownsDB: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves db open.
func NewBadgerStore(db *badger.DB, maxBatchOps int) *BadgerStore {
	if maxBatchOps <= 0 {
		maxBatchOps = DefaultMaxBatchOps
	}
	return &BadgerStore{db: db, maxBatchOps: maxBatchOps}
}

// DB exposes the underlying database so other components (the checkpoint
// tracker) can share it.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// InMemory reports whether the database lives only in memory.
func (s *BadgerStore) InMemory() bool {
	return s.db.Opts().InMemory
}

// MaxBatchOps implements DocumentStore.
func (s *BadgerStore) MaxBatchOps() int {
	return s.maxBatchOps
}

// Close implements DocumentStore.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// Get implements DocumentStore.
func (s *BadgerStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	metrics.RecordStoreOperation("get", collection, time.Since(start), ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetMany implements DocumentStore. Missing IDs are absent from the result.
func (s *BadgerStore) GetMany(ctx context.Context, collection string, ids []string) (map[string]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	out := make(map[string]Document, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(docKey(collection, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var doc Document
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s/%s: %w", collection, id, err)
			}
			out[id] = doc
		}
		return nil
	})
	metrics.RecordStoreOperation("get_many", collection, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Query implements DocumentStore with a prefix scan of the collection.
func (s *BadgerStore) Query(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Document, error) {
	start := time.Now()
	docs, err := s.scan(ctx, collection, filters)
	metrics.RecordStoreOperation("query", collection, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	sortDocuments(docs, order)
	return applyLimit(docs, limit), nil
}

// Count implements DocumentStore.
func (s *BadgerStore) Count(ctx context.Context, collection string, filters []Filter) (int, error) {
	start := time.Now()
	docs, err := s.scan(ctx, collection, filters)
	metrics.RecordStoreOperation("count", collection, time.Since(start), err)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Commit implements DocumentStore. All ops run in one read-write
// transaction; each op reads the current value and writes the merge.
func (s *BadgerStore) Commit(ctx context.Context, ops []Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			key := docKey(op.Collection, op.ID)

			var existing Document
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return fmt.Errorf("read %s: %w", key, err)
			default:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &existing)
				}); err != nil {
					return fmt.Errorf("decode %s: %w", key, err)
				}
			}

			data, err := json.Marshal(Merge(existing, op.Doc))
			if err != nil {
				return fmt.Errorf("encode %s: %w", key, err)
			}
			if err := txn.Set(key, data); err != nil {
				return fmt.Errorf("write %s: %w", key, err)
			}
		}
		return nil
	})
	metrics.RecordStoreOperation("commit", ops[0].Collection, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("commit %d ops: %w", len(ops), err)
	}
	return nil
}

func (s *BadgerStore) scan(ctx context.Context, collection string, filters []Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := collectionPrefix(collection)
	var out []Document

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc Document
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if matches(doc, filters) {
				out = append(out, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
