package domain

import "errors"

var (
	// ErrCacheMiss is returned when a cache key does not exist.
	// Expected on the first run, never fatal.
	ErrCacheMiss = errors.New("cache key not found")

	// ErrEmptyCacheKey is returned when a cache operation is attempted with an empty key
	ErrEmptyCacheKey = errors.New("cache key cannot be empty")

	// ErrNoMintAddress is returned when a mint address cannot be recovered from an upstream response
	ErrNoMintAddress = errors.New("no mint address")
)
