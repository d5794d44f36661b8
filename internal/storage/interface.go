package storage

import (
	"context"
	"io"
)

// ObjectStorage stores meme images and turns their keys into public URLs.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// EnsureBucket creates the bucket when the provider allows it
	EnsureBucket(ctx context.Context) error
}
