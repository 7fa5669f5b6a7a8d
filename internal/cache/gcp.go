package cache

import (
	"encoding/json"
	"sort"
	"sync"
)

// GCPCache holds the last GCP listing fetched from the registry.
// Records are kept opaque; only the names drive selection.
type GCPCache struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

// NewGCPCache creates an empty GCPCache
func NewGCPCache() *GCPCache {
	return &GCPCache{
		records: make(map[string]json.RawMessage),
	}
}

// Replace swaps the whole listing in one step.
func (c *GCPCache) Replace(records map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(records))
	for name, rec := range records {
		next[name] = rec
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = next
}

// Get retrieves the opaque record for name
func (c *GCPCache) Get(name string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[name]
	return rec, ok
}

// Has reports whether name was in the last listing
func (c *GCPCache) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns the cached names in lexical order.
func (c *GCPCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.records))
	for name := range c.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cached GCPs
func (c *GCPCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Reset clears the cache
func (c *GCPCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]json.RawMessage)
}
