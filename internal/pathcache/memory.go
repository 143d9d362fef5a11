package pathcache

import (
	"context"
	"sync"

	"github.com/gravitas-games/mazenav/pkg/grid"
)

// MemoryCache is a bounded in-process cache for running without Redis.
// When full, the oldest entry is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	max     int
	entries map[Key][]grid.Coord
	order   []Key
}

// NewMemoryCache creates a cache holding at most max paths
func NewMemoryCache(max int) *MemoryCache {
	if max < 1 {
		max = 1
	}
	return &MemoryCache{
		max:     max,
		entries: make(map[Key][]grid.Coord, max),
	}
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]grid.Coord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return clonePath(path), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key Key, path []grid.Coord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = clonePath(path)
	return nil
}

// Len returns the number of cached paths
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func clonePath(p []grid.Coord) []grid.Coord {
	out := make([]grid.Coord, len(p))
	copy(out, p)
	return out
}
