package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiterStore counts requests in Redis so that limits hold across
// processes. It approximates the token bucket with a fixed one-second window:
// per key, up to RequestsPerSecond requests are admitted per wall-clock
// second.
type RedisLimiterStore struct {
	client *redis.Client
	limit  int64
	now    func() time.Time
}

// NewRedisLimiterStore creates a Redis-backed LimiterStore.
func NewRedisLimiterStore(client *redis.Client, cfg RateLimitConfig) *RedisLimiterStore {
	limit := int64(cfg.RequestsPerSecond)
	if limit < 1 {
		limit = 1
	}
	return &RedisLimiterStore{client: client, limit: limit, now: time.Now}
}

// Allow implements LimiterStore.
func (s *RedisLimiterStore) Allow(ctx context.Context, key string) (bool, int, error) {
	window := fmt.Sprintf("ratelimit:%s:%d", key, s.now().Unix())

	count, err := s.client.Incr(ctx, window).Result()
	if err != nil {
		return true, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		// Keep the key one extra second so in-flight readers of the closing
		// window never see it vanish mid-request.
		s.client.Expire(ctx, window, 2*time.Second)
	}

	if count > s.limit {
		return false, 1, nil
	}
	return true, 0, nil
}
