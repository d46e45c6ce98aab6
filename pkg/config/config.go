// Package config provides the unified configuration system for shardstream.
// It defines a single DatasetConfig structure used by both the conversion
// pipeline and the reader side, ensuring consistent defaults across the
// whole system.
//
// The configuration is organized into logical sections:
//   - Layout: shard chunk size, block format, compression codec
//   - Iteration: batch size, shuffle, seed
//   - Observability: logging
//
// Example usage:
//
//	cfg := config.NewDatasetConfig()
//	cfg.Layout.ChunkSize = 4096
//	cfg.Layout.Codec = "zstd"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
)

// DatasetConfig is the single configuration structure for converting and
// consuming a sharded dataset directory.
type DatasetConfig struct {
	// Layout controls the on-disk shard layout produced at conversion time
	Layout LayoutConfig `yaml:"layout" json:"layout"`

	// Iteration controls batch production on the reader side
	Iteration IterationConfig `yaml:"iteration" json:"iteration"`

	// Observability settings for logging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// LayoutConfig controls how a dataset is partitioned into shard files.
type LayoutConfig struct {
	// ChunkSize is the fixed number of rows per shard (last shard may be shorter)
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// BlockFormat selects the columnar block container ("parquet" or "arrow")
	BlockFormat string `yaml:"block_format" json:"block_format"`

	// Codec selects whole-block compression ("none", "zstd", "lz4", "snappy")
	Codec string `yaml:"codec" json:"codec"`

	// CompressionLevel tunes the codec when it supports levels (zstd)
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
}

// IterationConfig controls batch iteration over a published dataset.
type IterationConfig struct {
	// BatchSize is the number of samples per produced batch
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Shuffle enables permuted visitation order
	Shuffle bool `yaml:"shuffle" json:"shuffle"`

	// Seed makes a shuffled run reproducible; 0 draws a fresh seed per iterator
	Seed int64 `yaml:"seed" json:"seed"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level" json:"log_level"`
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
}

// NewDatasetConfig creates a configuration with production defaults. The
// defaults mirror the layout the conversion pipeline has always produced:
// 1000-row parquet shards compressed with zstd, 32-sample shuffled batches.
func NewDatasetConfig() *DatasetConfig {
	return &DatasetConfig{
		Layout: LayoutConfig{
			ChunkSize:        1000,
			BlockFormat:      "parquet",
			Codec:            "zstd",
			CompressionLevel: 3,
		},
		Iteration: IterationConfig{
			BatchSize: 32,
			Shuffle:   true,
			Seed:      0,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogEncoding: "json",
		},
	}
}

// Validate validates the configuration for correctness.
// It checks required fields and ensures values are within acceptable ranges.
// Callers should validate after loading configuration to catch errors early.
func (dc *DatasetConfig) Validate() error {
	if dc.Layout.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if dc.Layout.BlockFormat == "" {
		return fmt.Errorf("block_format is required")
	}
	if dc.Layout.Codec == "" {
		return fmt.Errorf("codec is required")
	}
	if dc.Iteration.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if dc.Iteration.Seed < 0 {
		return fmt.Errorf("seed cannot be negative")
	}
	return nil
}
