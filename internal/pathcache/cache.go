// Package pathcache stores computed paths keyed by maze version and
// endpoints.
package pathcache

import (
	"context"
	"fmt"

	"github.com/gravitas-games/mazenav/pkg/grid"
)

// Key identifies one search. Fingerprint pins the maze contents so an
// edited maze never serves stale paths.
type Key struct {
	MazeID      string
	Fingerprint string
	Start       grid.Coord
	Goal        grid.Coord
}

// String renders the key without a prefix.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d,%d:%d,%d", k.MazeID, k.Fingerprint, k.Start.X, k.Start.Y, k.Goal.X, k.Goal.Y)
}

// Cache is a path store. A stored empty path records that no path exists.
type Cache interface {
	// Get returns the cached path and whether the key was present.
	Get(ctx context.Context, key Key) ([]grid.Coord, bool, error)
	Set(ctx context.Context, key Key, path []grid.Coord) error
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*MemoryCache)(nil)
)
