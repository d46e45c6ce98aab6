package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/block"
	"github.com/abemdxb/shardstream/pkg/compression"
	"github.com/abemdxb/shardstream/pkg/config"
	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/logger"
	"github.com/abemdxb/shardstream/pkg/source"
)

// Writer turns an in-memory table into a directory of fixed-size shard
// files plus a manifest. Every shard except possibly the last holds exactly
// chunkSize rows, which is what makes chunk-aligned reads possible later.
type Writer struct {
	chunkSize int
	format    block.Format
	encoder   block.Encoder
	codec     compression.Codec
}

// NewWriter builds a writer from the layout section of the dataset config.
func NewWriter(cfg *config.DatasetConfig) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	format, err := block.ParseFormat(cfg.Layout.BlockFormat)
	if err != nil {
		return nil, err
	}
	encoder, err := block.NewEncoder(format)
	if err != nil {
		return nil, err
	}
	codec, err := compression.NewCodec(&compression.Config{
		Algorithm: compression.Algorithm(cfg.Layout.Codec),
		Level:     compression.Level(cfg.Layout.CompressionLevel),
	})
	if err != nil {
		return nil, err
	}

	return &Writer{
		chunkSize: cfg.Layout.ChunkSize,
		format:    format,
		encoder:   encoder,
		codec:     codec,
	}, nil
}

// shardName yields the canonical file name for a shard ordinal: a five
// digit zero-padded sequence number, the block format extension, and the
// codec suffix when compression is on.
func (w *Writer) shardName(ordinal int) string {
	return fmt.Sprintf("shard.%05d%s%s", ordinal, w.format.Ext(), w.codec.Ext())
}

// WriteShards slices the table into chunk windows, encodes and compresses
// each window, and persists one shard file per window. It returns the
// ordered shard file names. The caller is responsible for publishing the
// manifest afterwards; readers never see a directory with shards but no
// index.
func (w *Writer) WriteShards(ctx context.Context, dir string, table *block.Table) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create dataset directory")
	}

	ctx = context.WithValue(ctx, logger.DatasetKey, dir)

	rows := table.NumRows()
	shards := make([]string, 0, (rows+w.chunkSize-1)/w.chunkSize)

	for start := 0; start < rows; start += w.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "shard write cancelled")
		}

		end := start + w.chunkSize
		if end > rows {
			end = rows
		}

		window := table.Slice(start, end)
		encoded, err := w.encoder.Encode(window)
		if err != nil {
			return nil, err
		}
		compressed, err := w.codec.Compress(encoded)
		if err != nil {
			return nil, err
		}

		name := w.shardName(len(shards))
		if err := os.WriteFile(filepath.Join(dir, name), compressed, 0o644); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeFile, "failed to write shard %s", name)
		}

		logger.WithContext(context.WithValue(ctx, logger.ShardKey, name)).Debug("shard written",
			zap.Int("rows", end-start),
			zap.Int("encoded_bytes", len(encoded)),
			zap.Int("compressed_bytes", len(compressed)))

		shards = append(shards, name)
	}

	return shards, nil
}

// Write persists the table as shards and publishes the manifest. This is
// the whole ingestion path for an in-memory table.
func (w *Writer) Write(ctx context.Context, dir string, table *block.Table) (*Manifest, error) {
	shards, err := w.WriteShards(ctx, dir, table)
	if err != nil {
		return nil, err
	}

	manifest := BuildManifest(uint64(table.NumRows()), table.Schema(), shards)
	if err := manifest.Publish(dir); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Convert ingests a source file (CSV, JSONL, Parquet, Arrow) into a new
// dataset directory: load, infer schema, shard, compress, publish.
func Convert(ctx context.Context, inputPath, dir string, cfg *config.DatasetConfig) (*Manifest, error) {
	reader, err := source.ForPath(inputPath)
	if err != nil {
		return nil, err
	}

	table, err := reader.LoadTable(ctx)
	if err != nil {
		return nil, err
	}

	writer, err := NewWriter(cfg)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, logger.SourceKey, reader.Format())
	logger.WithContext(ctx).Info("converting source to dataset",
		zap.String("file", inputPath),
		zap.String("dataset", dir),
		zap.Int("rows", table.NumRows()))

	return writer.Write(ctx, dir, table)
}
