package objectstore

import (
	"context"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/abemdxb/shardstream/pkg/errors"
)

// MinioConfig holds connection settings for a MinIO or S3-compatible
// endpoint. Zero-value fields fall back to the MINIO_* environment
// variables and then to local-development defaults.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Bucket    string
	Prefix    string
}

func (c *MinioConfig) applyEnv() {
	if c.Endpoint == "" {
		c.Endpoint = envOr("MINIO_ENDPOINT", "localhost:9000")
	}
	if c.AccessKey == "" {
		c.AccessKey = envOr("MINIO_ACCESS_KEY", "minioadmin")
	}
	if c.SecretKey == "" {
		c.SecretKey = envOr("MINIO_SECRET_KEY", "minioadmin")
	}
	if !c.Secure {
		switch strings.ToLower(os.Getenv("MINIO_SECURE")) {
		case "true", "1", "yes":
			c.Secure = true
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MinioStore implements Store over one bucket of a MinIO endpoint, with an
// optional key prefix for namespacing datasets within the bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore connects to the configured endpoint and ensures the bucket
// exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	cfg.applyEnv()
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "object store bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeInternal, "failed to check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeInternal, "failed to create bucket %s", cfg.Bucket)
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *MinioStore) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(key), r, size, minio.PutObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeInternal, "failed to upload %s", key)
	}
	return nil
}

func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeInternal, "failed to open %s", key)
	}
	// GetObject is lazy; surface NoSuchKey now instead of on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return nil, errors.Newf(errors.ErrorTypeFile, "object %s not found", key)
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeInternal, "failed to stat %s", key)
	}
	return obj, nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.key(prefix)

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    full,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, errors.ErrorTypeInternal, "failed to list %s", prefix)
		}
		name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/")
		if name != "" {
			keys = append(keys, name)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(key), minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return nil
		}
		return errors.Wrapf(err, errors.ErrorTypeInternal, "failed to delete %s", key)
	}
	return nil
}
