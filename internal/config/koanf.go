// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"mediagraph.yaml",
	"mediagraph.yml",
	"/etc/mediagraph/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. File and
// environment layers override these.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Engine:         "object",
			RootDir:        "./data",
			Bucket:         "catalog",
			Object:         "movies.csv",
			ProgressEvery:  1000,
			AvgRecordBytes: 600,
		},
		Ingest: IngestConfig{
			TargetSize:          10000,
			MinVoteCount:        10,
			TransformBatchSize:  500,
			StoreBatchSize:      100,
			ProgressEvery:       500,
			ProgressPath:        "/data/mediagraph/progress",
			Territories:         []string{"US", "GB", "CA"},
			LicenseWindow:       365 * 24 * time.Hour,
			LicenseType:         "non_exclusive",
			DistributionType:    "svod",
			SimilarityThreshold: 0.8,
			FailureLogLimit:     1000,
		},
		Embedding: EmbeddingConfig{
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
			Model:        "models/text-embedding-004",
			Dimensions:   768,
			BatchSize:    100,
			BatchDelay:   time.Second,
			MaxTextChars: 2000,
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			CacheSize:    10000,
		},
		Store: StoreConfig{
			Path:        "/data/mediagraph/store",
			MaxBatchOps: 500,
			MaxRetries:  3,
		},
		Graph: GraphConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			ReadinessTopic: "mediagraph.readiness",
			CompletedTopic: "mediagraph.ingest.completed",
			MaxReconnects:  10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  ":9108",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration with layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// EMBEDDING_API_KEY -> embedding.api_key
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"ingest.territories",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Source
	"source_engine":           "source.engine",
	"source_base_url":         "source.base_url",
	"source_root_dir":         "source.root_dir",
	"source_bucket":           "source.bucket",
	"source_object":           "source.object",
	"source_limit":            "source.limit",
	"source_progress_every":   "source.progress_every",
	"source_avg_record_bytes": "source.avg_record_bytes",

	// Ingest
	"ingest_target_size":          "ingest.target_size",
	"ingest_min_vote_count":       "ingest.min_vote_count",
	"ingest_transform_batch_size": "ingest.transform_batch_size",
	"ingest_store_batch_size":     "ingest.store_batch_size",
	"skip_embeddings":             "ingest.skip_embeddings",
	"full_validation":             "ingest.full_validation",
	"ingest_progress_every":       "ingest.progress_every",
	"ingest_resume":               "ingest.resume",
	"ingest_progress_path":        "ingest.progress_path",
	"ingest_territories":          "ingest.territories",
	"ingest_license_window":       "ingest.license_window",
	"ingest_license_type":         "ingest.license_type",
	"ingest_distribution_type":    "ingest.distribution_type",
	"similarity_top_k":            "ingest.similarity_top_k",
	"similarity_threshold":        "ingest.similarity_threshold",
	"failure_log_limit":           "ingest.failure_log_limit",
	"ingest_interval":             "ingest.interval",

	// Embedding
	"embedding_api_key":        "embedding.api_key",
	"gemini_api_key":           "embedding.api_key",
	"embedding_base_url":       "embedding.base_url",
	"embedding_model":          "embedding.model",
	"embedding_dimensions":     "embedding.dimensions",
	"embedding_batch_size":     "embedding.batch_size",
	"embedding_batch_delay":    "embedding.batch_delay",
	"embedding_max_text_chars": "embedding.max_text_chars",
	"embedding_timeout":        "embedding.timeout",
	"embedding_max_retries":    "embedding.max_retries",
	"embedding_cache_size":     "embedding.cache_size",

	// Store
	"store_path":          "store.path",
	"store_in_memory":     "store.in_memory",
	"store_max_batch_ops": "store.max_batch_ops",
	"store_max_retries":   "store.max_retries",

	// Graph mirror
	"graph_enabled":  "graph.enabled",
	"graph_uri":      "graph.uri",
	"graph_username": "graph.username",
	"graph_password": "graph.password",
	"graph_database": "graph.database",

	// NATS
	"nats_enabled":         "nats.enabled",
	"nats_url":             "nats.url",
	"nats_readiness_topic": "nats.readiness_topic",
	"nats_completed_topic": "nats.completed_topic",
	"nats_max_reconnects":  "nats.max_reconnects",

	// Metrics
	"metrics_enabled": "metrics.enabled",
	"metrics_listen":  "metrics.listen",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
