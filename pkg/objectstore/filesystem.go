package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abemdxb/shardstream/pkg/errors"
)

// FilesystemStore implements Store over a local directory. It exists so
// sync pipelines can be exercised without an object storage endpoint.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore roots a store at dir, creating it if needed.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create store root")
	}
	return &FilesystemStore{root: dir}, nil
}

func (s *FilesystemStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *FilesystemStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "put cancelled")
	}

	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create key directory")
	}

	f, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeFile, "failed to create %s", key)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return errors.Wrapf(err, errors.ErrorTypeFile, "failed to write %s", key)
	}
	return f.Close()
}

func (s *FilesystemStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "get cancelled")
	}

	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrorTypeFile, "object %s not found", key)
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeFile, "failed to open %s", key)
	}
	return f, nil
}

func (s *FilesystemStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeFile, "failed to list %s", prefix)
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrorTypeFile, "failed to delete %s", key)
	}
	return nil
}
