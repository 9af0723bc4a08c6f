// Package cache defines the port interface for the in-process cache used
// by the definition resolver.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with per-entry TTLs.
type Cache interface {
	// Get retrieves a value; ok is false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error
}
