package persistence

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const statsCacheKey = "helpdesk:dashboard_stats"

// StatsCache stores the dashboard aggregate in Redis under a short TTL.
// Every accessor degrades to a miss when Redis is unreachable.
type StatsCache struct {
	redis  *Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsCache constructs the cache. A nil redis handle or zero TTL
// disables caching entirely.
func NewStatsCache(redis *Redis, ttl time.Duration, logger *zap.Logger) *StatsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if redis == nil || redis.Client == nil || ttl <= 0 {
		return nil
	}
	return &StatsCache{redis: redis, ttl: ttl, logger: logger}
}

// GetStats returns the cached aggregate when present.
func (c *StatsCache) GetStats(ctx context.Context) (*domain.DashboardStats, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.redis.Client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stats domain.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.logger.Warn("stats cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &stats, true
}

// SetStats stores the aggregate.
func (c *StatsCache) SetStats(ctx context.Context, stats *domain.DashboardStats) {
	if c == nil || stats == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.redis.Client.Set(ctx, statsCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached aggregate after any write.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.redis.Client.Del(ctx, statsCacheKey).Err(); err != nil {
		c.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
