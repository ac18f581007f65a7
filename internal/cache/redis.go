package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Logger receives cache failures; they never fail the request
type Logger interface {
	Warnf(format string, args ...interface{})
}

// RedisQueryCache shares query embeddings between API instances
type RedisQueryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger Logger
}

// NewRedisClient parses a redis:// URL and verifies connectivity
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisQueryCache(client *redis.Client, ttl time.Duration, logger Logger) *RedisQueryCache {
	return &RedisQueryCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisQueryCache) Get(ctx context.Context, key string) ([]float32, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.warnf("cache get %s: %v", key, err)
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal(val, &embedding); err != nil {
		c.warnf("cache decode %s: %v", key, err)
		return nil, false
	}
	return embedding, true
}

func (c *RedisQueryCache) Set(ctx context.Context, key string, embedding []float32) {
	data, err := json.Marshal(embedding)
	if err != nil {
		c.warnf("cache encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.warnf("cache set %s: %v", key, err)
	}
}

func (c *RedisQueryCache) warnf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}
