// Package objectstore moves published dataset directories between local
// disk and S3-compatible object storage. Datasets are immutable once
// published, so transfers are plain whole-object copies with no
// versioning concerns.
package objectstore

import (
	"context"
	"io"
)

// Store is a minimal object interface over a single bucket-like namespace.
type Store interface {
	// Put uploads the contents of r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get opens the object at key for reading. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns all keys under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at key; deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
