package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// MTTRCache caches computed MTTR summaries per comparison scope. The
// comparison population changes slowly relative to the countdown refresh
// rate, so summaries survive across ticks within a session.
type MTTRCache interface {
	Get(ctx context.Context, scope string) (*domain.MTTRSummary, bool)
	Set(ctx context.Context, scope string, summary *domain.MTTRSummary, ttl time.Duration)
}

type redisMTTRCache struct {
	client *redis.Client
}

// NewMTTRCache wraps a redis client as an MTTR cache.
func NewMTTRCache(client *redis.Client) MTTRCache {
	return &redisMTTRCache{client: client}
}

func cacheKey(scope string) string {
	return fmt.Sprintf("sla:mttr:%s", scope)
}

func (c *redisMTTRCache) Get(ctx context.Context, scope string) (*domain.MTTRSummary, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(scope)).Bytes()
	if err != nil {
		// redis.Nil is an ordinary miss; anything else degrades to a
		// recompute, never an error.
		return nil, false
	}
	var summary domain.MTTRSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func (c *redisMTTRCache) Set(ctx context.Context, scope string, summary *domain.MTTRSummary, ttl time.Duration) {
	if c.client == nil || summary == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(scope), raw, ttl).Err()
}
