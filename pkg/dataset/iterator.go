package dataset

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/config"
	"github.com/abemdxb/shardstream/pkg/logger"
)

// Batch is a column-major view of up to batchSize samples, keyed by column
// name. Within a shuffled iteration the rows appear in permuted order.
type Batch map[string][]interface{}

// Sample is one row of the dataset keyed by column name.
type Sample map[string]interface{}

// Iterator walks a dataset in batches, optionally in a seeded shuffled
// order. It owns its random source: two iterators built with the same seed
// over the same dataset yield identical batch sequences, regardless of
// anything else running in the process.
//
// An Iterator is single-goroutine; create one per consumer.
type Iterator struct {
	loader    *ChunkLoader
	perm      []int64
	cursor    int
	batchSize int
	seed      int64
	logger    *zap.Logger
}

// NewIterator builds an iterator from the iteration section of the config.
// When shuffling with a zero seed, a fresh seed is drawn from the wall
// clock and can be read back through Seed for reproducing the run.
func (d *Dataset) NewIterator(cfg config.IterationConfig) *Iterator {
	n := int64(d.manifest.Samples)
	perm := make([]int64, n)
	for i := range perm {
		perm[i] = int64(i)
	}

	// A sequential iterator reports seed zero regardless of configuration;
	// the seed only means anything when it drives a shuffle.
	var seed int64
	if cfg.Shuffle {
		seed = cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(perm), func(i, j int) {
			perm[i], perm[j] = perm[j], perm[i]
		})
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.NewDatasetConfig().Iteration.BatchSize
	}

	it := &Iterator{
		loader:    d.loader,
		perm:      perm,
		batchSize: batchSize,
		seed:      seed,
		logger:    logger.Get(),
	}

	it.logger.Debug("iterator created",
		zap.Int64("samples", n),
		zap.Int("batch_size", batchSize),
		zap.Bool("shuffle", cfg.Shuffle),
		zap.Int64("seed", seed))

	return it
}

// Seed reports the seed driving this iterator's shuffle order. Zero when
// the iterator is sequential.
func (it *Iterator) Seed() int64 {
	return it.seed
}

// HasNext reports whether another batch remains.
func (it *Iterator) HasNext() bool {
	return it.cursor < len(it.perm)
}

// Next yields the next batch, or nil when the dataset is exhausted. The
// final batch of an epoch may be shorter than the configured batch size.
//
// Each call loads the contiguous row span covering the batch's selected
// indices and extracts the rows from it. Under shuffling that span can be
// far wider than the batch, which trades read amplification for never
// holding more than one span in memory.
func (it *Iterator) Next(ctx context.Context) (Batch, error) {
	if !it.HasNext() {
		return nil, nil
	}

	end := it.cursor + it.batchSize
	if end > len(it.perm) {
		end = len(it.perm)
	}
	selected := it.perm[it.cursor:end]

	lo, hi := selected[0], selected[0]
	for _, idx := range selected[1:] {
		if idx < lo {
			lo = idx
		}
		if idx > hi {
			hi = idx
		}
	}

	span, err := it.loader.Load(ctx, lo, hi+1)
	if err != nil {
		return nil, err
	}

	local := make([]int, len(selected))
	for i, idx := range selected {
		local[i] = int(idx - lo)
	}

	it.cursor = end
	return Batch(span.Take(local).Columns()), nil
}
