// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Source    SourceConfig    `koanf:"source"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Store     StoreConfig     `koanf:"store"`
	Graph     GraphConfig     `koanf:"graph"`
	NATS      NATSConfig      `koanf:"nats"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SourceConfig locates the catalog export.
type SourceConfig struct {
	// Engine selects the reader: "object" streams through the object reader,
	// "duckdb" scans a local file with DuckDB's CSV reader.
	Engine string `koanf:"engine" validate:"oneof=object duckdb"`

	// BaseURL is the public object-storage endpoint. When empty, objects are
	// read from RootDir on the local filesystem.
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
	RootDir string `koanf:"root_dir"`

	Bucket string `koanf:"bucket" validate:"required"`
	Object string `koanf:"object" validate:"required"`

	// Limit caps how many records are read (0 = all).
	Limit int `koanf:"limit" validate:"min=0"`

	ProgressEvery  int `koanf:"progress_every" validate:"min=1"`
	AvgRecordBytes int `koanf:"avg_record_bytes" validate:"min=1"`
}

// IngestConfig controls the orchestrator.
type IngestConfig struct {
	TargetSize         int  `koanf:"target_size" validate:"min=1"`
	MinVoteCount       int  `koanf:"min_vote_count" validate:"min=0"`
	TransformBatchSize int  `koanf:"transform_batch_size" validate:"min=1"`
	StoreBatchSize     int  `koanf:"store_batch_size" validate:"min=1"`
	SkipEmbeddings     bool `koanf:"skip_embeddings"`
	FullValidation     bool `koanf:"full_validation"`
	ProgressEvery      int  `koanf:"progress_every" validate:"min=1"`

	// Resume skips movies up to the last stored checkpoint.
	Resume       bool   `koanf:"resume"`
	ProgressPath string `koanf:"progress_path"`

	// Territories receive a DISTRIBUTION_RIGHT edge per ready platform.
	Territories      []string      `koanf:"territories" validate:"dive,len=2"`
	LicenseWindow    time.Duration `koanf:"license_window"`
	LicenseType      string        `koanf:"license_type"`
	DistributionType string        `koanf:"distribution_type"`

	// SimilarityTopK > 0 links each movie to its K nearest neighbors by
	// embedding cosine similarity.
	SimilarityTopK      int     `koanf:"similarity_top_k" validate:"min=0,max=100"`
	SimilarityThreshold float64 `koanf:"similarity_threshold" validate:"min=0,max=1"`

	FailureLogLimit int `koanf:"failure_log_limit" validate:"min=0"`

	// Interval > 0 re-runs ingestion periodically under the supervisor.
	Interval time.Duration `koanf:"interval"`
}

// EmbeddingConfig configures the embedding provider client.
type EmbeddingConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	Model        string        `koanf:"model" validate:"required"`
	Dimensions   int           `koanf:"dimensions" validate:"min=1"`
	BatchSize    int           `koanf:"batch_size" validate:"min=1,max=100"`
	BatchDelay   time.Duration `koanf:"batch_delay"`
	MaxTextChars int           `koanf:"max_text_chars" validate:"min=1"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxRetries   int           `koanf:"max_retries" validate:"min=0,max=10"`
	CacheSize    int           `koanf:"cache_size" validate:"min=0"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	Path        string `koanf:"path"`
	InMemory    bool   `koanf:"in_memory"`
	MaxBatchOps int    `koanf:"max_batch_ops" validate:"min=1,max=500"`
	MaxRetries  int    `koanf:"max_retries" validate:"min=0,max=10"`
}

// GraphConfig configures the optional Neo4j/Memgraph mirror.
type GraphConfig struct {
	Enabled  bool   `koanf:"enabled"`
	URI      string `koanf:"uri"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

// NATSConfig configures readiness event publishing.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	ReadinessTopic string `koanf:"readiness_topic"`
	CompletedTopic string `koanf:"completed_topic"`
	MaxReconnects  int    `koanf:"max_reconnects"`
}

// MetricsConfig configures the metrics/health HTTP listener.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// UsesObjectStorage reports whether the source is remote.
func (s *SourceConfig) UsesObjectStorage() bool {
	return s.BaseURL != ""
}
