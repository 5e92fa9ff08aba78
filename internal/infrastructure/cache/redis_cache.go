package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// opTimeout bounds every cache operation so an unavailable Redis degrades to
// a fast miss instead of blocking the scoring path.
const opTimeout = 250 * time.Millisecond

// RedisCache implements port.ResultCache on Redis. Values are stored as flat
// JSON objects of string-to-number pairs; entry lifetime is the TTL passed to
// Set (Redis EXPIRE), nothing else evicts.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache creates a cache from a redis:// URL.
func NewRedisCache(url string, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = opTimeout
	opts.ReadTimeout = opTimeout
	opts.WriteTimeout = opTimeout
	return &RedisCache{client: redis.NewClient(opts), logger: logger}, nil
}

// Get returns the cached value for a key. Misses, timeouts, connection
// failures, and undecodable payloads all report ok=false; the cache never
// raises to the caller.
func (c *RedisCache) Get(ctx context.Context, key string) (map[string]float64, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed, treating as miss", "key", key, "error", err)
		}
		return nil, false
	}

	var value map[string]float64
	if err := json.Unmarshal(payload, &value); err != nil {
		c.logger.Debug("cache entry undecodable, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

// Set stores a value with the given TTL. Failures are logged and absorbed.
func (c *RedisCache) Set(ctx context.Context, key string, value map[string]float64, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value unserializable", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", "key", key, "error", err)
	}
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Noop is a disabled cache: every Get misses and Set discards. Correctness
// of scoring must hold identically with this implementation.
type Noop struct{}

// Get always misses.
func (Noop) Get(_ context.Context, _ string) (map[string]float64, bool) { return nil, false }

// Set discards the value.
func (Noop) Set(_ context.Context, _ string, _ map[string]float64, _ time.Duration) {}
