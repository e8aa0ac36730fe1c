package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
)

// FileStore persists blobs as <dir>/<key>.json files.
// The default directory is the OS temp dir.
type FileStore struct {
	fs   adapter.FileSystem
	json adapter.JSON
	dir  string
}

// NewFileStore creates a file-backed store rooted at dir.
// An empty dir defaults to the OS temp dir.
func NewFileStore(fileSystem adapter.FileSystem, json adapter.JSON, dir string) *FileStore {
	if dir == "" {
		dir = fileSystem.TempDir()
	}
	return &FileStore{
		fs:   fileSystem,
		json: json,
		dir:  dir,
	}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the JSON blob stored under key into value
func (s *FileStore) Get(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	data, err := s.fs.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrCacheMiss
		}
		return fmt.Errorf("failed to read cache %q: %w", key, err)
	}

	if err := s.json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to decode cache %q: %w", key, err)
	}

	return nil
}

// Set writes value as a JSON blob under key
func (s *FileStore) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	data, err := s.json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache %q: %w", key, err)
	}

	if err := s.fs.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache %q: %w", key, err)
	}

	return nil
}

// Delete removes the blob stored under key
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	if err := s.fs.Remove(s.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to remove cache %q: %w", key, err)
	}

	return nil
}
