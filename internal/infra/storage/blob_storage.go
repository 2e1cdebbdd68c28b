// Package storage provides blob-backed file storage for uploaded media.
package storage

import (
	"context"
	"io"
	"strings"

	"clio/config"
	"clio/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"

	// Registered bucket backends. The scheme in storage.bucketUrl picks one.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
)

// blobStorage implements the FileStorage interface on top of a gocloud bucket,
// so local disk and S3 deployments share one code path.
type blobStorage struct {
	bucket  *blob.Bucket
	baseURL string
}

// Params defines the parameters required for the storage service.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
}

// New opens the configured bucket and registers its close on shutdown.
func New(params Params) (service.FileStorage, error) {
	if params.Config.Storage == nil || params.Config.Storage.BucketURL == "" {
		return nil, errors.New("storage bucket url must be provided")
	}

	bucket, err := blob.OpenBucket(context.Background(), params.Config.Storage.BucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open storage bucket")
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return errors.Wrap(bucket.Close(), "failed to close storage bucket")
		},
	})

	return &blobStorage{
		bucket:  bucket,
		baseURL: strings.TrimRight(params.Config.Storage.BaseURL, "/"),
	}, nil
}

// Save writes the content under the given key, overwriting any existing blob.
func (s *blobStorage) Save(ctx context.Context, key string, content io.Reader, contentType string) error {
	writer, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrap(err, "failed to open blob writer")
	}

	if _, err := io.Copy(writer, content); err != nil {
		// Closing after a failed copy aborts the write.
		_ = writer.Close()

		return errors.Wrap(err, "failed to write blob")
	}

	return errors.Wrap(writer.Close(), "failed to commit blob")
}

// Delete removes the blob under the given key. Deleting a missing key is not
// an error, so callers can retry safely.
func (s *blobStorage) Delete(ctx context.Context, key string) error {
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return errors.Wrap(err, "failed to check blob existence")
	}
	if !exists {
		return nil
	}

	return errors.Wrap(s.bucket.Delete(ctx, key), "failed to delete blob")
}

// URL returns the public URL for a stored key.
func (s *blobStorage) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key must not be empty")
	}

	return s.baseURL + "/" + strings.TrimLeft(key, "/"), nil
}
