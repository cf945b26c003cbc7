package cache

import (
	"context"
	"fmt"
	"time"

	"code_practice/internal/common"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces fixed-window request counts per key.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	max    int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, prefix string, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, max: max, window: window}
}

// Allow counts one request for key. Once the window's budget is spent it returns a
// *common.RateLimitError with the time left in the window.
func (r *RateLimiter) Allow(ctx context.Context, key string) error {
	if r.max <= 0 {
		return nil
	}
	fullKey := r.prefix + key

	acquired, err := r.rdb.SetNX(ctx, fullKey, 1, r.window).Result()
	if err != nil {
		return fmt.Errorf("rate limit check failed: %w", err)
	}
	if acquired {
		return nil
	}

	count, err := r.rdb.Incr(ctx, fullKey).Result()
	if err != nil {
		return fmt.Errorf("rate limit check failed: %w", err)
	}
	ttl, err := r.rdb.TTL(ctx, fullKey).Result()
	if err == nil && ttl <= 0 {
		// Key lost its expiry (e.g. created by INCR after a race); restore it.
		_ = r.rdb.Expire(ctx, fullKey, r.window).Err()
		ttl = r.window
	}
	if int(count) > r.max {
		return &common.RateLimitError{
			Message:    fmt.Sprintf("submission rate limit of %d per %s exceeded", r.max, r.window),
			RetryAfter: ttl,
		}
	}
	return nil
}
