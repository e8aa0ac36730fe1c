// Package cache provides a keyed JSON blob store used to persist
// expensive, slowly-changing chain-query results across runs. Losing the
// cache only increases the number of chain queries on the next run.
package cache

import (
	"context"
)

// Store defines the interface for keyed JSON blob storage
//
//go:generate mockgen -source=store.go -destination=../mocks/cache_store.go -package=mocks -mock_names=Store=MockCacheStore
type Store interface {
	// Get reads the JSON blob stored under key into value.
	// Returns domain.ErrCacheMiss if the key does not exist.
	Get(ctx context.Context, key string, value interface{}) error

	// Set writes value as a JSON blob under key
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes the blob stored under key.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
