// Package service defines interfaces for core, stateless domain logic.
package service

import (
	"context"
	"io"
)

// FileStorage abstracts the blob backend used for uploaded files such as
// profile images. Keys are relative storage paths like
// "users/profile/<uuid>.png"; backend selection (local disk, S3) is an
// infrastructure concern.
type FileStorage interface {
	// Save writes the content under the given key, overwriting any existing blob.
	Save(ctx context.Context, key string, content io.Reader, contentType string) error

	// Delete removes the blob under the given key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL resolves the public URL for a stored key.
	URL(ctx context.Context, key string) (string, error)
}
