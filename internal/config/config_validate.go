// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package config

import (
	"fmt"

	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/validation"
)

// Validate checks struct tags first, then cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateGraph(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if c.Source.Engine == "duckdb" && c.Source.UsesObjectStorage() {
		return fmt.Errorf("SOURCE_ENGINE=duckdb reads local files only; unset SOURCE_BASE_URL")
	}
	if !c.Source.UsesObjectStorage() && c.Source.RootDir == "" {
		return fmt.Errorf("SOURCE_ROOT_DIR is required when SOURCE_BASE_URL is empty")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.Resume && c.Ingest.ProgressPath == "" {
		return fmt.Errorf("INGEST_PROGRESS_PATH is required when INGEST_RESUME=true")
	}
	if len(c.Ingest.Territories) > 0 && c.Ingest.LicenseWindow <= 0 {
		return fmt.Errorf("INGEST_LICENSE_WINDOW must be positive when territories are configured")
	}
	if c.Ingest.SimilarityTopK > 0 && c.Ingest.SkipEmbeddings {
		return fmt.Errorf("SIMILARITY_TOP_K requires embeddings; unset SKIP_EMBEDDINGS")
	}
	if !c.Ingest.SkipEmbeddings && c.Embedding.APIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required unless SKIP_EMBEDDINGS=true")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateGraph() error {
	if !c.Graph.Enabled {
		return nil
	}
	if c.Graph.URI == "" {
		return fmt.Errorf("GRAPH_URI is required when GRAPH_ENABLED=true")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if c.NATS.ReadinessTopic == "" || c.NATS.CompletedTopic == "" {
		return fmt.Errorf("NATS topics must not be empty")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, disabled (got %q)", c.Logging.Level)
	}
	return nil
}
