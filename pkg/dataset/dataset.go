package dataset

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/logger"
	"github.com/abemdxb/shardstream/pkg/schema"
)

// Dataset is a read handle on a published dataset directory. It is cheap
// to open: shards are decoded lazily as iteration or random access touches
// them.
type Dataset struct {
	dir      string
	manifest *Manifest
	loader   *ChunkLoader
}

// Open binds to the dataset at path. The path must be a directory holding
// an index artifact; a directory without one yields a MissingIndex error
// and anything else an UnsupportedFormat error.
func Open(path string) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrorTypeFile, "dataset path %s does not exist", path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat dataset path")
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedFormat,
			"dataset path %s is not a directory", path)
	}

	manifest, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}

	d := &Dataset{dir: path, manifest: manifest}

	chunkSize, err := d.deriveChunkSize()
	if err != nil {
		return nil, err
	}
	d.loader = NewChunkLoader(path, manifest, chunkSize)

	logger.Get().Info("dataset opened",
		zap.String("dataset", path),
		zap.Uint64("samples", manifest.Samples),
		zap.Int("shards", len(manifest.Shards)),
		zap.Int64("chunk_size", chunkSize))

	return d, nil
}

// deriveChunkSize recovers the write-time chunk size from the layout
// itself. Every shard but the last is full, so the row count of the first
// shard is the chunk size whenever more than one shard exists; with a
// single shard any value covering all samples works.
func (d *Dataset) deriveChunkSize() (int64, error) {
	if len(d.manifest.Shards) <= 1 {
		if d.manifest.Samples == 0 {
			return 1, nil
		}
		return int64(d.manifest.Samples), nil
	}

	first, err := NewShardReader(d.dir, d.manifest.Columns).Read(d.manifest.Shards[0])
	if err != nil {
		return 0, err
	}
	if first.NumRows() == 0 {
		return 0, errors.Newf(errors.ErrorTypeCorruptIndex,
			"first shard %s is empty", d.manifest.Shards[0])
	}
	return int64(first.NumRows()), nil
}

// Len reports the total number of samples.
func (d *Dataset) Len() int64 {
	return int64(d.manifest.Samples)
}

// Schema reports the column schema recorded in the manifest.
func (d *Dataset) Schema() *schema.Schema {
	return d.manifest.Columns
}

// Manifest exposes the loaded manifest.
func (d *Dataset) Manifest() *Manifest {
	return d.manifest
}

// Get returns the sample at global index idx. The containing chunk-aligned
// window is loaded and the row extracted from it, so repeated access
// within one chunk reuses the loader's cached shard.
func (d *Dataset) Get(ctx context.Context, idx int64) (Sample, error) {
	if idx < 0 || idx >= int64(d.manifest.Samples) {
		return nil, errors.Newf(errors.ErrorTypeIndexOutOfRange,
			"index %d outside dataset of %d samples", idx, d.manifest.Samples)
	}

	chunk := d.loader.ChunkSize()
	start := (idx / chunk) * chunk
	end := start + chunk
	if end > int64(d.manifest.Samples) {
		end = int64(d.manifest.Samples)
	}

	window, err := d.loader.Load(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return Sample(window.Row(int(idx - start))), nil
}
