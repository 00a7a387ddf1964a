package store

import (
	"context"
	"time"
)

// ScopedStore prefixes every key of an inner store.
//
// Example usage:
//
//	tokens := Scoped(kv, "token:")
//	responses := Scoped(kv, "http:")
type ScopedStore struct {
	inner  Store
	prefix string
}

// Scoped returns a view of inner whose keys are prefixed with prefix.
// A nil inner is treated as a [NullStore]. Scoping a ScopedStore nests the
// prefixes.
func Scoped(inner Store, prefix string) Store {
	if inner == nil {
		inner = NullStore{}
	}
	if s, ok := inner.(*ScopedStore); ok {
		return &ScopedStore{inner: s.inner, prefix: s.prefix + prefix}
	}
	return &ScopedStore{inner: inner, prefix: prefix}
}

// Prefix returns the full key prefix.
func (s *ScopedStore) Prefix() string { return s.prefix }

func (s *ScopedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *ScopedStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *ScopedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close does not close the inner store; its owner does.
func (s *ScopedStore) Close() error { return nil }
