// File: backend/objstore/objstore.go
//
// Object-storage backend over the S3 wire protocol. Paths follow the
// "bucket/object" convention; each read issues a ranged GetObject on
// its own goroutine, leaving retry policy to the client library and the
// host above the engine.

package objstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stornado/stornado/api"
)

// Config carries the connection settings for an S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Backend reads from S3-compatible object storage.
type Backend struct {
	client *minio.Client
}

var _ api.Backend = (*Backend)(nil)

// New connects a backend to the configured endpoint.
func New(cfg Config) (*Backend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: empty object-storage endpoint", api.ErrInvalidArgument)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objstore backend: %w", err)
	}
	return &Backend{client: client}, nil
}

// Open resolves a "bucket/object" path. The object is stat'ed up front
// so a missing object fails the open instead of the first read.
func (b *Backend) Open(ctx context.Context, path string) (api.Object, error) {
	bucket, key, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := b.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		slog.Error("objstore open failed", "bucket", bucket, "object", key, "error", err)
		return nil, fmt.Errorf("objstore stat %s/%s: %w", bucket, key, err)
	}
	return &object{client: b.client, bucket: bucket, key: key}, nil
}

// Close is a no-op; the minio client holds no resources needing
// explicit teardown.
func (b *Backend) Close() error {
	return nil
}

// splitPath extracts bucket and object key from a "bucket/object" path.
func splitPath(path string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(path, "/")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: path %q is not bucket/object", api.ErrInvalidArgument, path)
	}
	return bucket, key, nil
}

type object struct {
	client *minio.Client
	bucket string
	key    string
}

func (o *object) ReadAt(p []byte, off int64, done api.CompletionFunc) {
	go func() {
		opts := minio.GetObjectOptions{}
		if err := opts.SetRange(off, off+int64(len(p))-1); err != nil {
			done(0, err)
			return
		}
		r, err := o.client.GetObject(context.Background(), o.bucket, o.key, opts)
		if err != nil {
			done(0, err)
			return
		}
		defer r.Close()
		n, err := io.ReadFull(r, p)
		done(int64(n), err)
	}()
}

func (o *object) Close() error {
	return nil
}
