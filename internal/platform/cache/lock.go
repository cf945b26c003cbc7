package cache

import (
	"context"
	"fmt"
	"time"

	"code_practice/internal/common"
	"code_practice/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Locker hands out short-lived exclusive locks keyed by name.
type Locker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewLocker(rdb *redis.Client, prefix string, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Acquire takes the lock for key without waiting. It returns common.ErrLockFailed when
// someone else holds it. The returned release func is safe to call once the lock expired.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s is held: %w", fullKey, common.ErrLockFailed)
	}

	release := func() {
		// Use a fresh context: the caller's may already be canceled.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		deleted, err := releaseScript.Run(rctx, l.rdb, []string{fullKey}, token).Int64()
		if err != nil {
			logger.Error(ctx, "failed to release lock", zap.String("key", fullKey), zap.Error(err))
			return
		}
		if deleted == 0 {
			logger.Warn(ctx, "lock expired before release", zap.String("key", fullKey))
		}
	}
	return release, nil
}
