package pathcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gravitas-games/mazenav/pkg/grid"
)

// RedisCache keeps paths as JSON arrays under prefixed keys with a TTL
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps an existing client; the caller owns its lifecycle
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) redisKey(key Key) string {
	return c.prefix + key.String()
}

// Get looks up a path; a missing key is not an error
func (c *RedisCache) Get(ctx context.Context, key Key) ([]grid.Coord, bool, error) {
	data, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached path: %w", err)
	}

	var path []grid.Coord
	if err := json.Unmarshal(data, &path); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached path: %w", err)
	}
	if path == nil {
		path = []grid.Coord{}
	}
	return path, true, nil
}

// Set stores a path with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key Key, path []grid.Coord) error {
	if path == nil {
		path = []grid.Coord{}
	}
	data, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("failed to encode path: %w", err)
	}
	if err := c.client.Set(ctx, c.redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache path: %w", err)
	}
	return nil
}
