// Package objstore abstracts raw file storage for uploaded documents.
// Paths handed out by a Store are opaque keys; callers persist them and pass
// them back unmodified.
package objstore

import (
	"context"
	"io"
)

// Store persists and retrieves uploaded file bytes.
type Store interface {
	// Put writes the object and returns its storage key.
	Put(ctx context.Context, key string, r io.Reader) (string, error)

	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
