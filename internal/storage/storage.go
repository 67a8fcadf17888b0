// Package storage provides work-directory file storage for source and
// exported audio. It defines the Storage interface (port) for hexagonal
// architecture and implementations for local disk and S3 publishing.
package storage

import (
	"context"
	"errors"
)

// Static errors for storage operations.
var (
	// ErrInvalidName is returned for file names that would escape the
	// work directory.
	ErrInvalidName = errors.New("invalid file name")
	// ErrPublishUnsupported is returned when the backend cannot publish
	// files to a public URL.
	ErrPublishUnsupported = errors.New("publishing is not supported by this storage")
)

// Storage defines file storage rooted in a single work directory.
// Names are bare file names; anything path-like is rejected.
type Storage interface {
	// Save writes data under the given name and returns the absolute path.
	Save(name string, data []byte) (path string, err error)

	// Path resolves a name to an absolute path inside the work directory
	// without touching the file.
	Path(name string) (string, error)

	// Read returns the contents of a stored file.
	Read(name string) ([]byte, error)

	// Remove deletes a stored file. Removing a missing file is not an
	// error.
	Remove(name string) error

	// Publish makes a stored file publicly reachable and returns its URL.
	// Returns ErrPublishUnsupported when the backend has no public side.
	Publish(ctx context.Context, name string) (url string, err error)
}
