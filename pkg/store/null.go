package store

import (
	"context"
	"time"
)

// NullStore is a no-op store that never stores anything.
// Useful for testing or when caching should be disabled.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return NullStore{}
}

// Get always returns a miss.
func (NullStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set does nothing.
func (NullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (NullStore) Delete(context.Context, string) error { return nil }

// Close does nothing.
func (NullStore) Close() error { return nil }

var _ Store = NullStore{}
