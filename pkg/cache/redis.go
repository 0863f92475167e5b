package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/fleetmap/pkg/errors"
)

// Connection attempts made by NewRedisCache. The wait doubles after each
// failed ping.
var (
	pingAttempts = 3
	pingBackoff  = time.Second
)

// RedisCache stores entries in Redis. It is safe for concurrent use and is
// the backend used by the HTTP service.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr. A service often starts before its Redis is
// ready, so the ping is retried; the final failure is ErrCodeUnavailable.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "redis at %s", addr)
	}
	return &RedisCache{client: client}, nil
}

func ping(ctx context.Context, client *redis.Client) error {
	wait := pingBackoff
	var err error
	for i := 0; i < pingAttempts; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return nil
		}
		if i == pingAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
	return fmt.Errorf("ping failed after %d attempts: %w", pingAttempts, err)
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores a value in Redis. A ttl <= 0 stores without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
