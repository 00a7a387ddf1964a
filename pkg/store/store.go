// Package store provides the persistent key-value storage used for the access
// token, user options and cached API responses.
//
// Backends:
//   - [FileStore]: JSON files under a directory, for the CLI
//   - [RedisStore]: shared storage for multi-instance server deployments
//   - [MemoryStore]: process-local storage for tests and ephemeral servers
//   - [NullStore]: stores nothing, disables caching
//
// Use [Scoped] to give each consumer its own key namespace:
//
//	kv, _ := store.NewFileStore(dir)
//	tokens := store.Scoped(kv, "token:")
//	responses := store.Scoped(kv, "http:")
package store

import (
	"context"
	"time"
)

// Store is a key-value store with optional expiration.
type Store interface {
	// Get returns the value for key. The boolean is false on a miss or when the
	// entry has expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
