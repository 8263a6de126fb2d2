package geocoding

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores encoded lookup results. Implementations must treat errors as
// misses; the geocoder never fails because of its cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

type MemoryCache struct {
	store *cache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: cache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	c.store.Set(key, value, cache.DefaultExpiration)
}

// RedisCache shares results between replicas.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "parisian-doors:geocode:",
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "Redis cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	return b, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
