package track

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a track cannot be found by ID.
var ErrNotFound = errors.New("track not found")

// Repository defines the interface for track persistence.
// It acts as a port in the hexagonal architecture pattern.
type Repository interface {
	// Save persists a track to the storage.
	// If the track already exists, it should be updated.
	Save(ctx context.Context, track *Track) error

	// FindByID retrieves a track by its unique identifier.
	// Returns ErrNotFound if the track does not exist.
	FindByID(ctx context.Context, id string) (*Track, error)

	// List returns all tracks.
	List(ctx context.Context) ([]*Track, error)

	// Delete removes a track from storage.
	// Returns ErrNotFound if the track does not exist.
	Delete(ctx context.Context, id string) error
}
