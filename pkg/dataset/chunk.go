package dataset

import (
	"context"
	"sync"

	"github.com/abemdxb/shardstream/pkg/block"
	"github.com/abemdxb/shardstream/pkg/errors"
)

// ChunkLoader materialises arbitrary half-open row ranges [start, end) of a
// dataset by reading the shards that cover the range and stitching the
// overlapping slices together. Because every shard but the last holds
// exactly chunkSize rows, global row i lives in shard i/chunkSize at local
// offset i%chunkSize.
//
// The loader keeps the most recently decoded shard so that consecutive
// loads inside the same shard, the common case during sequential
// iteration, pay for one decompression instead of one per batch.
type ChunkLoader struct {
	manifest  *Manifest
	reader    *ShardReader
	chunkSize int64

	mu         sync.Mutex
	cachedIdx  int
	cachedData *block.Table
}

// NewChunkLoader builds a loader over a published dataset directory.
func NewChunkLoader(dir string, manifest *Manifest, chunkSize int64) *ChunkLoader {
	return &ChunkLoader{
		manifest:  manifest,
		reader:    NewShardReader(dir, manifest.Columns),
		chunkSize: chunkSize,
		cachedIdx: -1,
	}
}

// ChunkSize reports the row capacity of a full shard.
func (cl *ChunkLoader) ChunkSize() int64 {
	return cl.chunkSize
}

// shard returns the decoded table for one shard ordinal, serving from the
// single-entry cache when possible.
func (cl *ChunkLoader) shard(idx int) (*block.Table, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.cachedIdx == idx {
		return cl.cachedData, nil
	}

	table, err := cl.reader.Read(cl.manifest.Shards[idx])
	if err != nil {
		return nil, err
	}

	cl.cachedIdx = idx
	cl.cachedData = table
	return table, nil
}

// Load returns the rows in [start, end) as one contiguous table, crossing
// shard boundaries as needed.
func (cl *ChunkLoader) Load(ctx context.Context, start, end int64) (*block.Table, error) {
	if start < 0 || end > int64(cl.manifest.Samples) || start >= end {
		return nil, errors.Newf(errors.ErrorTypeIndexOutOfRange,
			"row range [%d, %d) outside dataset of %d samples", start, end, cl.manifest.Samples)
	}

	firstShard := int(start / cl.chunkSize)
	lastShard := int((end - 1) / cl.chunkSize)
	if lastShard >= len(cl.manifest.Shards) {
		return nil, errors.Newf(errors.ErrorTypeCorruptIndex,
			"row range [%d, %d) requires shard %d but manifest lists %d shards",
			start, end, lastShard, len(cl.manifest.Shards))
	}

	result := block.NewTable(cl.manifest.Columns)
	for s := firstShard; s <= lastShard; s++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "chunk load cancelled")
		}

		table, err := cl.shard(s)
		if err != nil {
			return nil, err
		}

		shardStart := int64(s) * cl.chunkSize
		lo := int64(0)
		if start > shardStart {
			lo = start - shardStart
		}
		hi := end - shardStart
		if hi > cl.chunkSize {
			hi = cl.chunkSize
		}
		if hi > int64(table.NumRows()) {
			return nil, errors.Newf(errors.ErrorTypeCorruptIndex,
				"shard %s holds %d rows, expected at least %d",
				cl.manifest.Shards[s], table.NumRows(), hi)
		}

		if err := result.AppendTable(table.Slice(int(lo), int(hi))); err != nil {
			return nil, err
		}
	}

	return result, nil
}
