package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chessmate/chessmate/internal/domain"
)

type entry struct {
	value     domain.AgentEvaluation
	expiresAt time.Time
}

// LRUCache is an in-process bounded LRU with O(1) get/put, used as the
// default agent-evaluation cache when no remote cache is configured.
type LRUCache struct {
	inner *lru.Cache[string, entry]
	ttl   time.Duration
	now   func() time.Time
}

// NewLRUCache constructs an LRUCache holding up to size entries, each
// expiring ttl after insertion.
func NewLRUCache(size int, ttl time.Duration) (*LRUCache, error) {
	inner, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{inner: inner, ttl: ttl, now: time.Now}, nil
}

func (c *LRUCache) GetMany(ctx context.Context, keys []string) (map[string]domain.AgentEvaluation, error) {
	out := make(map[string]domain.AgentEvaluation, len(keys))
	now := c.now()
	for _, k := range keys {
		e, ok := c.inner.Get(k)
		if !ok {
			continue
		}
		if now.After(e.expiresAt) {
			c.inner.Remove(k)
			continue
		}
		out[k] = e.value
	}
	return out, nil
}

func (c *LRUCache) PutMany(ctx context.Context, values map[string]domain.AgentEvaluation) error {
	expiresAt := c.now().Add(c.ttl)
	for k, v := range values {
		c.inner.Add(k, entry{value: v, expiresAt: expiresAt})
	}
	return nil
}
