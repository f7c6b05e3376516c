// Package cache keeps catalog products in Redis so till and shelf lookups do
// not hit PostgreSQL for data that rarely changes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
)

const keyPrefix = "zlagoda:product:"

// RedisProductCache stores products as JSON under zlagoda:product:<id>.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProductCache creates a cache client. Call Ping to verify connectivity.
func NewRedisProductCache(addr, password string, db int, ttl time.Duration) *RedisProductCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisProductCache{client: client, ttl: ttl}
}

func (c *RedisProductCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisProductCache) Close() error {
	return c.client.Close()
}

// Health returns the health status of the cache
func (c *RedisProductCache) Health(ctx context.Context) map[string]string {
	status := map[string]string{"status": "up"}
	if err := c.Ping(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}
	return status
}

func (c *RedisProductCache) Get(ctx context.Context, id int64) (*repository.Product, bool, error) {
	val, err := c.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var p repository.Product
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (c *RedisProductCache) Set(ctx context.Context, p *repository.Product) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(p.ID), payload, c.ttl).Err()
}

func (c *RedisProductCache) Delete(ctx context.Context, id int64) error {
	return c.client.Del(ctx, key(id)).Err()
}

func key(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// NoopProductCache is used when Redis is not configured or unreachable.
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, int64) (*repository.Product, bool, error) {
	return nil, false, nil
}

func (NoopProductCache) Set(context.Context, *repository.Product) error { return nil }

func (NoopProductCache) Delete(context.Context, int64) error { return nil }
