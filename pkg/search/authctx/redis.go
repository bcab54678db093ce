package authctx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSessionCache is a SessionCache backed by go-redis, used to probe the
// shared session KV that the identity provider's own login flow populates.
type RedisSessionCache struct {
	client *redis.Client
}

// NewRedisSessionCache wraps an already-connected redis client.
func NewRedisSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

// Probe issues a single pipelined GET per key and returns the bytes of the
// first key that's set, in the order given.
func (c *RedisSessionCache) Probe(ctx context.Context, keys []string) ([]byte, bool, error) {
	pipe := c.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("authctx: session cache pipeline: %w", err)
	}

	for _, cmd := range cmds {
		value, err := cmd.Bytes()
		if err == nil {
			return value, true, nil
		}
		if err != redis.Nil {
			return nil, false, fmt.Errorf("authctx: session cache read: %w", err)
		}
	}
	return nil, false, nil
}
