package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for file storage operations
type Storage interface {
	// StoreFromBytes writes data to a new file whose name follows pattern (see os.CreateTemp)
	StoreFromBytes(ctx context.Context, pattern string, data []byte) (string, error)

	// Writable reports whether new files can be created
	Writable(ctx context.Context) error
}

// LocalStorage implements Storage interface using local filesystem
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates the directory if needed
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	return &LocalStorage{dir: abs}, nil
}

func (s *LocalStorage) StoreFromBytes(ctx context.Context, pattern string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		os.Remove(file.Name()) // Clean up on error
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return file.Name(), nil
}

func (s *LocalStorage) Writable(ctx context.Context) error {
	path, err := s.StoreFromBytes(ctx, ".write-check-*", nil)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
