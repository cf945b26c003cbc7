package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuotaStore keeps the "daily quota exhausted" deadline in Redis so every replica sees it.
type QuotaStore struct {
	rdb *redis.Client
	key string
}

func NewQuotaStore(rdb *redis.Client, key string) *QuotaStore {
	return &QuotaStore{rdb: rdb, key: key}
}

func (s *QuotaStore) SetExhaustedUntil(ctx context.Context, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, s.key, until.UnixMilli(), ttl).Err(); err != nil {
		return fmt.Errorf("store quota deadline: %w", err)
	}
	return nil
}

func (s *QuotaStore) ExhaustedUntil(ctx context.Context) (time.Time, error) {
	ms, err := s.rdb.Get(ctx, s.key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("load quota deadline: %w", err)
	}
	return time.UnixMilli(ms), nil
}
