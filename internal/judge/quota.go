package judge

import (
	"context"
	"sync"
	"time"

	"code_practice/internal/platform/logger"

	"go.uber.org/zap"
)

// QuotaStore persists the moment the daily quota becomes available again.
type QuotaStore interface {
	SetExhaustedUntil(ctx context.Context, until time.Time) error
	ExhaustedUntil(ctx context.Context) (time.Time, error)
}

// QuotaTracker is the shared "daily quota exceeded" flag. It resets at the next UTC midnight.
type QuotaTracker struct {
	store QuotaStore
	now   func() time.Time
}

func NewQuotaTracker(store QuotaStore) *QuotaTracker {
	if store == nil {
		store = NewMemoryQuotaStore()
	}
	return &QuotaTracker{store: store, now: time.Now}
}

// Exhausted reports whether calls to Judge0 should be skipped. Store failures count as "not exhausted".
func (q *QuotaTracker) Exhausted(ctx context.Context) bool {
	return !q.Until(ctx).IsZero()
}

// Until returns when the quota resets, or the zero time when it is available.
func (q *QuotaTracker) Until(ctx context.Context) time.Time {
	until, err := q.store.ExhaustedUntil(ctx)
	if err != nil {
		logger.Warn(ctx, "quota store read failed", zap.Error(err))
		return time.Time{}
	}
	if until.IsZero() || !q.now().Before(until) {
		return time.Time{}
	}
	return until
}

// Trip marks the quota exhausted until the next UTC midnight and returns that time.
func (q *QuotaTracker) Trip(ctx context.Context) time.Time {
	until := nextUTCMidnight(q.now())
	if err := q.store.SetExhaustedUntil(ctx, until); err != nil {
		logger.Error(ctx, "quota store write failed", zap.Error(err))
	}
	logger.Warn(ctx, "judge0 daily quota exhausted, switching to offline mode", zap.Time("until", until))
	return until
}

func nextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
}

// MemoryQuotaStore keeps the deadline in process memory.
type MemoryQuotaStore struct {
	mu    sync.Mutex
	until time.Time
}

func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{}
}

func (m *MemoryQuotaStore) SetExhaustedUntil(_ context.Context, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.until = until
	return nil
}

func (m *MemoryQuotaStore) ExhaustedUntil(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.until, nil
}
