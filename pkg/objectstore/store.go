// Package objectstore adapts the MinIO-backed object bucket (spec.md §4.2):
// upload/stream/copy/remove plus the path layout and slug rule every other
// component uses to compute storage paths.
package objectstore

import (
	"context"
	"io"
)

// Store is the object store adapter's full surface.
type Store interface {
	// Upload writes data to path with contentType and returns the full
	// storage path "<bucket>/<path>".
	Upload(ctx context.Context, data []byte, path, contentType string) (storagePath string, err error)

	// Stream opens storagePath for reading. The caller must Close the
	// returned reader; doing so releases the underlying connection.
	Stream(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Copy duplicates src to dst within the same bucket, used by archive
	// promotion to move a confirmed document out of stage-validate.
	Copy(ctx context.Context, src, dst string) error

	// Remove deletes path. Used by archive promotion to clean up the
	// stage-validate copy once the archive copy is confirmed durable.
	Remove(ctx context.Context, path string) error
}
