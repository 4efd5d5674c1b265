package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/railwatch/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps upstream city-autocomplete display names. City names are
// stable data, so a long TTL is fine; a miss just costs one upstream call.
type RedisCache struct {
	client  *redis.Client
	cityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, cityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		cityTTL: cityTTL,
	}
}

// GetCity returns the cached display name, or "" on a miss.
func (c *RedisCache) GetCity(ctx context.Context, name string) (string, error) {
	display, err := c.client.Get(ctx, cityKey(name)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return display, nil
}

func (c *RedisCache) SetCity(ctx context.Context, name, display string) error {
	return c.client.Set(ctx, cityKey(name), display, c.cityTTL).Err()
}

func cityKey(name string) string {
	return fmt.Sprintf("cache:city:%s", name)
}
