package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"code_practice/internal/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestLockerAcquireIsExclusive(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewLocker(rdb, "grading:lock:", time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("grading:lock:user-1"))

	_, err = locker.Acquire(ctx, "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLockFailed))

	other, err := locker.Acquire(ctx, "user-2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists("grading:lock:user-1"))

	again, err := locker.Acquire(ctx, "user-1")
	require.NoError(t, err)
	again()
}

func TestLockerReleaseDoesNotDropForeignLock(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewLocker(rdb, "lock:", time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:k", "someone-else"))

	release()
	got, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRateLimiterAllow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb, "rl:", 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "u1"))
	require.NoError(t, limiter.Allow(ctx, "u1"))

	err := limiter.Allow(ctx, "u1")
	var rlErr *common.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Greater(t, rlErr.RetryAfter, time.Duration(0))
	assert.True(t, errors.Is(err, common.ErrTooManyRequests))

	require.NoError(t, limiter.Allow(ctx, "u2"), "limits are per key")

	mr.FastForward(time.Minute + time.Second)
	require.NoError(t, limiter.Allow(ctx, "u1"), "window resets after expiry")
}

func TestRateLimiterDisabled(t *testing.T) {
	_, rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb, "rl:", 0, time.Minute)
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Allow(context.Background(), "u1"))
	}
}

func TestQuotaStoreRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewQuotaStore(rdb, "judge0:quota")
	ctx := context.Background()

	until, err := store.ExhaustedUntil(ctx)
	require.NoError(t, err)
	assert.True(t, until.IsZero())

	deadline := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	require.NoError(t, store.SetExhaustedUntil(ctx, deadline))

	until, err = store.ExhaustedUntil(ctx)
	require.NoError(t, err)
	assert.True(t, deadline.Equal(until))
}

func TestQuotaStoreIgnoresPastDeadline(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewQuotaStore(rdb, "judge0:quota")

	require.NoError(t, store.SetExhaustedUntil(context.Background(), time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("judge0:quota"))
}
