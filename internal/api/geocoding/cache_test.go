package geocoding

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte(`{"lat":1}`))
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, `{"lat":1}`, string(v))
}

func TestRedisCacheUnavailableIsAMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCache(client, time.Minute, testLogger())
	c.Set(ctx, "k", []byte("v"))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
