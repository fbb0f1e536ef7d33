// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tomtom215/mediagraph/internal/config"
	"github.com/tomtom215/mediagraph/internal/embedding"
	"github.com/tomtom215/mediagraph/internal/events"
	"github.com/tomtom215/mediagraph/internal/ingest"
	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/retry"
	"github.com/tomtom215/mediagraph/internal/source"
	"github.com/tomtom215/mediagraph/internal/store"
)

// components holds everything main owns and must close on exit.
type components struct {
	source       source.Source
	store        *store.EntityStore
	orchestrator *ingest.Orchestrator
	closers      []func(context.Context) error
}

// close releases components in reverse order of creation.
func (c *components) close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *components) onClose(fn func(context.Context) error) {
	c.closers = append(c.closers, fn)
}

// build wires the pipeline from cfg. On error everything already opened is
// closed again.
func build(ctx context.Context, cfg *config.Config) (c *components, err error) {
	c = &components{}
	defer func() {
		if err != nil {
			if cerr := c.close(context.WithoutCancel(ctx)); cerr != nil {
				logging.Warn().Err(cerr).Msg("Cleanup after failed startup")
			}
		}
	}()

	if c.source, err = buildSource(&cfg.Source); err != nil {
		return c, err
	}
	if closer, ok := c.source.(interface{ Close() error }); ok {
		c.onClose(func(context.Context) error { return closer.Close() })
	}

	docs, err := openDocumentStore(&cfg.Store)
	if err != nil {
		return c, err
	}

	storeOpts := []store.Option{store.WithRetry(storePolicy(&cfg.Store))}
	if cfg.Graph.Enabled {
		mirror, err := store.NewNeo4jMirror(ctx, &cfg.Graph)
		if err != nil {
			_ = docs.Close()
			return c, err
		}
		storeOpts = append(storeOpts, store.WithMirror(mirror))
	}
	c.store = store.NewEntityStore(docs, storeOpts...)
	c.onClose(c.store.Close)

	progress, err := buildProgressTracker(&cfg.Ingest, docs)
	if err != nil {
		return c, err
	}
	if closer, ok := progress.(interface{ Close() error }); ok {
		c.onClose(func(context.Context) error { return closer.Close() })
	}

	opts := []ingest.Option{ingest.WithProgressTracker(progress)}

	if p := buildEmbedder(&cfg.Embedding, cfg.Ingest.SkipEmbeddings); p != nil {
		opts = append(opts, ingest.WithEmbedder(p))
	}

	if cfg.NATS.Enabled {
		pub, err := events.NewNATSPublisher(&cfg.NATS, events.NewWatermillLogger())
		if err != nil {
			return c, err
		}
		c.onClose(func(context.Context) error { return pub.Close() })
		opts = append(opts, ingest.WithEvents(pub))
		logging.Info().
			Str("url", cfg.NATS.URL).
			Str("readiness_topic", pub.ReadinessTopic()).
			Str("completed_topic", pub.CompletedTopic()).
			Msg("Readiness events enabled")
	}

	c.orchestrator = ingest.New(cfg, c.source, c.store, opts...)
	return c, nil
}

// buildSource selects the source engine.
func buildSource(cfg *config.SourceConfig) (source.Source, error) {
	readerOpts := []source.ReaderOption{
		source.WithProgress(cfg.ProgressEvery, nil),
		source.WithAvgRecordBytes(cfg.AvgRecordBytes),
	}

	switch cfg.Engine {
	case "duckdb":
		if cfg.UsesObjectStorage() {
			return nil, errors.New("source.engine duckdb reads local files only; unset source.base_url")
		}
		path := filepath.Join(cfg.RootDir, cfg.Bucket, cfg.Object)
		src, err := source.NewDuckDBSource(path, readerOpts...)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("engine", cfg.Engine).Str("path", path).Msg("Source configured")
		return src, nil

	case "object", "":
		var objects source.ObjectReader
		if cfg.UsesObjectStorage() {
			objects = source.NewHTTPObjectReader(cfg.BaseURL, nil)
		} else {
			objects = source.NewFileObjectReader(cfg.RootDir)
		}
		logging.Info().
			Str("engine", "object").
			Bool("remote", cfg.UsesObjectStorage()).
			Str("bucket", cfg.Bucket).
			Str("object", cfg.Object).
			Msg("Source configured")
		return source.NewReader(objects, cfg.Bucket, cfg.Object, readerOpts...), nil

	default:
		return nil, fmt.Errorf("unknown source engine %q", cfg.Engine)
	}
}

// openDocumentStore opens Badger at store.path, or in memory.
func openDocumentStore(cfg *config.StoreConfig) (store.DocumentStore, error) {
	if cfg.InMemory {
		return store.OpenBadger("", store.WithInMemory(), store.WithMaxBatchOps(cfg.MaxBatchOps))
	}
	return store.OpenBadger(cfg.Path, store.WithMaxBatchOps(cfg.MaxBatchOps))
}

func storePolicy(cfg *config.StoreConfig) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = cfg.MaxRetries
	return p
}

// buildProgressTracker shares the document store's Badger database when it
// is on disk. An in-memory store gets its own database at
// ingest.progress_path so checkpoints survive restarts.
func buildProgressTracker(cfg *config.IngestConfig, docs store.DocumentStore) (ingest.ProgressTracker, error) {
	bs, ok := docs.(*store.BadgerStore)
	if ok && !bs.InMemory() {
		return ingest.NewBadgerProgress(bs.DB()), nil
	}
	if cfg.ProgressPath == "" {
		return ingest.NewInMemoryProgress(), nil
	}
	ps, err := store.OpenBadger(cfg.ProgressPath)
	if err != nil {
		return nil, fmt.Errorf("open progress store: %w", err)
	}
	return &ownedProgress{BadgerProgress: ingest.NewBadgerProgress(ps.DB()), db: ps}, nil
}

// ownedProgress closes the database it was opened on.
type ownedProgress struct {
	*ingest.BadgerProgress
	db *store.BadgerStore
}

func (p *ownedProgress) Close() error { return p.db.Close() }

// buildEmbedder returns nil when embeddings are skipped or no API key is set.
func buildEmbedder(cfg *config.EmbeddingConfig, skip bool) embedding.Provider {
	if skip {
		logging.Info().Msg("Embeddings disabled (ingest.skip_embeddings)")
		return nil
	}
	if cfg.APIKey == "" {
		logging.Warn().Msg("No embedding API key configured, movies will be stored without embeddings")
		return nil
	}
	retries := retry.DefaultPolicy()
	retries.MaxRetries = cfg.MaxRetries
	logging.Info().Str("model", cfg.Model).Int("batch_size", cfg.BatchSize).Msg("Embedding provider configured")
	return embedding.NewResilientProvider(embedding.NewGeminiProvider(cfg), embedding.ResilientOptions{
		Retry:          retries,
		CacheSize:      cfg.CacheSize,
		BreakerTimeout: time.Minute,
	})
}
