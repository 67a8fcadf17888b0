package track

import (
	"context"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
// Suitable for development and testing; swap for persistent storage in production.
type MemoryRepository struct {
	mu     sync.RWMutex
	tracks map[string]*Track
}

// NewMemoryRepository creates a new in-memory track repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tracks: make(map[string]*Track),
	}
}

// Save persists a track to the in-memory storage.
// Creates a clone to avoid external mutations.
func (r *MemoryRepository) Save(_ context.Context, track *Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[track.ID] = track.Clone()
	return nil
}

// FindByID retrieves a track by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	track, ok := r.tracks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return track.Clone(), nil
}

// List returns all tracks in the repository.
// Returns clones to prevent external mutations.
func (r *MemoryRepository) List(_ context.Context) ([]*Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Track, 0, len(r.tracks))
	for _, track := range r.tracks {
		result = append(result, track.Clone())
	}
	return result, nil
}

// Delete removes a track from storage.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tracks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tracks, id)
	return nil
}
