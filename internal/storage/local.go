package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements the Storage interface using local disk.
// It keeps every file directly under a single work directory and does not
// support publishing unless wrapped with S3Storage.
type LocalStorage struct {
	workDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// If workDir is empty, a "shadowtrack" directory under os.TempDir() is
// used. The directory is created if it doesn't exist.
func NewLocalStorage(workDir string) (*LocalStorage, error) {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "shadowtrack")
	}

	if err := os.MkdirAll(workDir, 0750); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}

	return &LocalStorage{workDir: workDir}, nil
}

// WorkDir returns the work directory path.
func (s *LocalStorage) WorkDir() string {
	return s.workDir
}

// Path resolves a name to an absolute path inside the work directory.
// Names carrying separators or dot-dot elements are rejected so request
// input can never address files outside the work directory.
func (s *LocalStorage) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.workDir, name), nil
}

// Save writes data under the given name and returns the absolute path.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Read returns the contents of a stored file.
func (s *LocalStorage) Read(name string) ([]byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 - path is confined to the work directory
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *LocalStorage) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Publish is not supported by LocalStorage and returns ErrPublishUnsupported.
func (s *LocalStorage) Publish(_ context.Context, _ string) (string, error) {
	return "", ErrPublishUnsupported
}
