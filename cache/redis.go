package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "tmplcache:"

// RedisOptions extends redis.Options with additional configuration.
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	IdleTimeout  time.Duration
	// TTL bounds how long an entry survives; zero means no expiry.
	TTL time.Duration
}

// RedisCache is a Redis-backed Cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new RedisCache and verifies connectivity.
func NewRedisCache(opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		IdleTimeout:  opts.IdleTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &RedisCache{client: client, ttl: opts.TTL}, nil
}

// withContextError handles context cancellation for operations that only return an error.
func withContextError(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}

// Get returns the cached bytes for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	return withContext(ctx, func() ([]byte, error) {
		data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: key=%s", ErrNotFound, key)
		} else if err != nil {
			return nil, fmt.Errorf("failed to get %s from Redis: %v", key, err)
		}
		return data, nil
	})
}

// Put stores data under key with the cache's configured TTL.
func (c *RedisCache) Put(ctx context.Context, key string, data []byte) error {
	return withContextError(ctx, func() error {
		if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
			return fmt.Errorf("failed to set %s in Redis: %v", key, err)
		}
		return nil
	})
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
