package objectstore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abemdxb/shardstream/pkg/dataset"
	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/logger"
)

// transferConcurrency caps parallel shard transfers per sync.
const transferConcurrency = 8

// SyncUp uploads a published dataset directory under remotePrefix. Shards
// go up in parallel; the index artifact goes up last, so a remote prefix
// with an index always has its full shard set, mirroring the local
// publish ordering.
func SyncUp(ctx context.Context, store Store, localDir, remotePrefix string) error {
	manifest, err := dataset.LoadManifest(localDir)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)

	for _, shard := range manifest.Shards {
		g.Go(func() error {
			return putFile(gctx, store,
				filepath.Join(localDir, shard),
				path.Join(remotePrefix, shard))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := putFile(ctx, store,
		filepath.Join(localDir, dataset.IndexFileName),
		path.Join(remotePrefix, dataset.IndexFileName)); err != nil {
		return err
	}

	logger.Get().Info("dataset uploaded",
		zap.String("dataset", localDir),
		zap.String("remote", remotePrefix),
		zap.Int("shards", len(manifest.Shards)))

	return nil
}

// SyncDown downloads a remote dataset under remotePrefix into localDir.
// Shards come down in parallel; the index artifact lands last, so a
// partially downloaded directory never looks like a valid dataset.
func SyncDown(ctx context.Context, store Store, remotePrefix, localDir string) error {
	staging, err := os.MkdirTemp("", "shardstream-sync-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	if err := getFile(ctx, store,
		path.Join(remotePrefix, dataset.IndexFileName),
		filepath.Join(staging, dataset.IndexFileName)); err != nil {
		return err
	}
	manifest, err := dataset.LoadManifest(staging)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create dataset directory")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)

	for _, shard := range manifest.Shards {
		g.Go(func() error {
			return getFile(gctx, store,
				path.Join(remotePrefix, shard),
				filepath.Join(localDir, shard))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := manifest.Publish(localDir); err != nil {
		return err
	}

	logger.Get().Info("dataset downloaded",
		zap.String("remote", remotePrefix),
		zap.String("dataset", localDir),
		zap.Int("shards", len(manifest.Shards)))

	return nil
}

func putFile(ctx context.Context, store Store, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeFile, "failed to open %s", localPath)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeFile, "failed to stat %s", localPath)
	}
	return store.Put(ctx, key, f, info.Size())
}

func getFile(ctx context.Context, store Store, key, localPath string) error {
	r, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeFile, "failed to create %s", localPath)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(localPath)
		return errors.Wrapf(err, errors.ErrorTypeFile, "failed to write %s", localPath)
	}
	return f.Close()
}
