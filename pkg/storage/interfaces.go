package storage

import (
	"context"
	"io"
)

// StorageService keeps generated files (receipts) somewhere shareable.
type StorageService interface {
	// Upload stores reader under key and returns the public URL, if any.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
