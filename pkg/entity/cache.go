package entity

import (
	"sync"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// Cache maps canonical identifiers to records. Records are never evicted;
// a cache lives as long as the page it serves.
type Cache struct {
	mu sync.Mutex
	m  map[ref.ID]*Record
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{m: make(map[ref.ID]*Record)}
}

// Get returns the record for id, if any.
func (c *Cache) Get(id ref.ID) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[id]
	return r, ok
}

// getOrCreate returns the record for id, creating it if needed. The boolean
// reports whether the record was created by this call.
func (c *Cache) getOrCreate(id ref.ID) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.m[id]; ok {
		return r, false
	}
	r := newRecord(id)
	c.m[id] = r
	return r, true
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
