package judge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) SetExhaustedUntil(context.Context, time.Time) error { return errors.New("down") }
func (failingStore) ExhaustedUntil(context.Context) (time.Time, error) {
	return time.Time{}, errors.New("down")
}

func TestQuotaTrackerTripUntilMidnight(t *testing.T) {
	q := NewQuotaTracker(NewMemoryQuotaStore())
	now := time.Date(2024, 3, 10, 17, 30, 0, 0, time.UTC)
	q.now = func() time.Time { return now }
	ctx := context.Background()

	assert.False(t, q.Exhausted(ctx))

	until := q.Trip(ctx)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), until)
	assert.True(t, q.Exhausted(ctx))
	assert.Equal(t, until, q.Until(ctx))

	now = until
	assert.False(t, q.Exhausted(ctx), "quota resets at midnight UTC")
}

func TestQuotaTrackerStoreFailureMeansAvailable(t *testing.T) {
	q := NewQuotaTracker(failingStore{})
	q.Trip(context.Background())
	assert.False(t, q.Exhausted(context.Background()))
}

func TestLookupLanguage(t *testing.T) {
	lang, err := LookupLanguage(" JS ")
	require.NoError(t, err)
	assert.Equal(t, 63, lang.JudgeID)
	assert.True(t, lang.Wrapped)

	lang, err = LookupLanguage("python3")
	require.NoError(t, err)
	assert.Equal(t, LangPython, lang.Slug)

	lang, err = LookupLanguage("c++")
	require.NoError(t, err)
	assert.Equal(t, 54, lang.JudgeID)
	assert.False(t, lang.Wrapped)

	_, err = LookupLanguage("cobol")
	assert.Error(t, err)

	assert.Len(t, Languages(), 9)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusFromID(StatusIDInQueue).Terminal())
	assert.False(t, StatusFromID(StatusIDProcessing).Terminal())
	assert.True(t, StatusFromID(StatusIDAccepted).Terminal())
	assert.True(t, StatusFromID(StatusIDRuntimeNZEC).RuntimeError())
	assert.Equal(t, "Compilation Error", StatusFromID(StatusIDCompilationError).String())
	assert.True(t, StatusUnverified.Unverified())
	assert.False(t, StatusUnverified.Terminal())
}
