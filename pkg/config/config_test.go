package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatasetConfig_Defaults(t *testing.T) {
	cfg := NewDatasetConfig()

	assert.Equal(t, 1000, cfg.Layout.ChunkSize)
	assert.Equal(t, "parquet", cfg.Layout.BlockFormat)
	assert.Equal(t, "zstd", cfg.Layout.Codec)
	assert.Equal(t, 32, cfg.Iteration.BatchSize)
	assert.True(t, cfg.Iteration.Shuffle)

	assert.NoError(t, cfg.Validate())
}

func TestDatasetConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DatasetConfig)
	}{
		{"zero chunk size", func(c *DatasetConfig) { c.Layout.ChunkSize = 0 }},
		{"negative chunk size", func(c *DatasetConfig) { c.Layout.ChunkSize = -5 }},
		{"empty block format", func(c *DatasetConfig) { c.Layout.BlockFormat = "" }},
		{"empty codec", func(c *DatasetConfig) { c.Layout.Codec = "" }},
		{"zero batch size", func(c *DatasetConfig) { c.Iteration.BatchSize = 0 }},
		{"negative seed", func(c *DatasetConfig) { c.Iteration.Seed = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDatasetConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("DS_CHUNK_SIZE", "250")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
layout:
  chunk_size: ${DS_CHUNK_SIZE}
  block_format: arrow
  codec: lz4
  compression_level: 1
iteration:
  batch_size: 16
  shuffle: false
observability:
  log_level: debug
  log_encoding: console
`), 0o644))

	var cfg DatasetConfig
	require.NoError(t, Load(path, &cfg))

	assert.Equal(t, 250, cfg.Layout.ChunkSize)
	assert.Equal(t, "arrow", cfg.Layout.BlockFormat)
	assert.Equal(t, "lz4", cfg.Layout.Codec)
	assert.Equal(t, 16, cfg.Iteration.BatchSize)
	assert.False(t, cfg.Iteration.Shuffle)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "console", cfg.Observability.LogEncoding)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewDatasetConfig()
	cfg.Layout.ChunkSize = 128
	require.NoError(t, Save(path, cfg))

	var back DatasetConfig
	require.NoError(t, Load(path, &back))
	assert.Equal(t, *cfg, back)
}
