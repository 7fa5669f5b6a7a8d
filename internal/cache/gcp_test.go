package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCPCache_NewGCPCache(t *testing.T) {
	cache := NewGCPCache()

	require.NotNil(t, cache)
	assert.NotNil(t, cache.records)
	assert.Equal(t, 0, cache.Len())
}

func TestGCPCache_ReplaceAndGet(t *testing.T) {
	cache := NewGCPCache()

	cache.Replace(map[string]json.RawMessage{
		"P1": json.RawMessage(`{"lat":12.5,"lon":45}`),
	})

	rec, ok := cache.Get("P1")
	require.True(t, ok, "expected to find P1")
	assert.JSONEq(t, `{"lat":12.5,"lon":45}`, string(rec))
	assert.True(t, cache.Has("P1"))
}

func TestGCPCache_Get_NotFound(t *testing.T) {
	cache := NewGCPCache()

	_, ok := cache.Get("nonexistent")
	assert.False(t, ok, "expected not to find nonexistent GCP")
}

func TestGCPCache_ReplaceDropsOldNames(t *testing.T) {
	cache := NewGCPCache()

	cache.Replace(map[string]json.RawMessage{"P1": nil, "P2": nil})
	cache.Replace(map[string]json.RawMessage{"P3": nil})

	assert.False(t, cache.Has("P1"))
	assert.False(t, cache.Has("P2"))
	assert.True(t, cache.Has("P3"))
	assert.Equal(t, 1, cache.Len())
}

func TestGCPCache_ReplaceCopiesInput(t *testing.T) {
	cache := NewGCPCache()
	in := map[string]json.RawMessage{"P1": nil}

	cache.Replace(in)
	in["P2"] = nil

	assert.False(t, cache.Has("P2"), "mutating the input map must not leak into the cache")
}

func TestGCPCache_NamesSorted(t *testing.T) {
	cache := NewGCPCache()
	cache.Replace(map[string]json.RawMessage{"b": nil, "c": nil, "a": nil})

	assert.Equal(t, []string{"a", "b", "c"}, cache.Names())
}

func TestGCPCache_Reset(t *testing.T) {
	cache := NewGCPCache()
	cache.Replace(map[string]json.RawMessage{"P1": nil, "P2": nil})

	cache.Reset()

	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.Names())
}

func TestGCPCache_ConcurrentReadReplace(t *testing.T) {
	cache := NewGCPCache()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)

		go func(id int) {
			defer wg.Done()
			cache.Replace(map[string]json.RawMessage{fmt.Sprintf("P%d", id): nil})
		}(i)

		go func() {
			defer wg.Done()
			_ = cache.Names()
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}
