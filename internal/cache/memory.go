package cache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
)

// MemoryStore keeps blobs in process memory. Nothing survives the run;
// useful for tests and for disabling persistence.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Get reads the JSON blob stored under key into value
func (s *MemoryStore) Get(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return domain.ErrCacheMiss
	}

	return json.Unmarshal(data, value)
}

// Set writes value as a JSON blob under key
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()

	return nil
}

// Delete removes the blob stored under key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()

	return nil
}
