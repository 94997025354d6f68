package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chessmate/chessmate/internal/domain"
)

// RedisCache is a shared, process-external agent-evaluation cache,
// JSON-encoding each domain.AgentEvaluation with a per-entry TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) namespaced(key string) string {
	return c.prefix + key
}

func (c *RedisCache) GetMany(ctx context.Context, keys []string) (map[string]domain.AgentEvaluation, error) {
	if len(keys) == 0 {
		return map[string]domain.AgentEvaluation{}, nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = c.namespaced(k)
	}

	values, err := c.client.MGet(ctx, namespaced...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make(map[string]domain.AgentEvaluation, len(keys))
	for i, v := range values {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		var ev domain.AgentEvaluation
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			continue
		}
		out[keys[i]] = ev
	}
	return out, nil
}

func (c *RedisCache) PutMany(ctx context.Context, values map[string]domain.AgentEvaluation) error {
	if len(values) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal agent evaluation: %w", err)
		}
		pipe.Set(ctx, c.namespaced(k), b, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}
	return nil
}
