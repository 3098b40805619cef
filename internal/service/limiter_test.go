package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picknic/picknic-backend/internal/apperrors"
	"github.com/picknic/picknic-backend/internal/redis"
)

func TestDailyLimiter_CountsUpToLimit(t *testing.T) {
	counters := newFakeCounterStore()
	limiter := NewDailyLimiter(counters, clockwork.NewFakeClock())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		count, err := limiter.CheckAndIncrement(ctx, "VOTE", "u1", 3)
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}

	count, err := limiter.CheckAndIncrement(ctx, "VOTE", "u1", 3)
	require.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
	assert.Equal(t, int64(4), count, "limit compares against the post-increment value")
}

func TestDailyLimiter_RacingLastSlot(t *testing.T) {
	// Two callers racing for the final slot: INCR is atomic, so exactly one
	// observes count == limit and the other count == limit+1.
	counters := newFakeCounterStore()
	limiter := NewDailyLimiter(counters, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := limiter.CheckAndIncrement(ctx, "VOTE", "u1", 2)
	require.NoError(t, err)

	_, errA := limiter.CheckAndIncrement(ctx, "VOTE", "u1", 2)
	_, errB := limiter.CheckAndIncrement(ctx, "VOTE", "u1", 2)
	granted := 0
	for _, err := range []error{errA, errB} {
		if err == nil {
			granted++
		} else {
			require.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
		}
	}
	assert.Equal(t, 1, granted)
}

func TestDailyLimiter_KeysRollOverAtMidnight(t *testing.T) {
	counters := newFakeCounterStore()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC))
	limiter := NewDailyLimiter(counters, clock)
	ctx := context.Background()

	_, err := limiter.CheckAndIncrement(ctx, "CREATE", "u1", 1)
	require.NoError(t, err)
	_, err = limiter.CheckAndIncrement(ctx, "CREATE", "u1", 1)
	require.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	clock.Advance(2 * time.Minute)

	_, err = limiter.CheckAndIncrement(ctx, "CREATE", "u1", 1)
	require.NoError(t, err, "a new calendar day means a fresh counter")

	assert.Equal(t, int64(2), counters.counts[redis.DailyLimitKey("CREATE", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "u1")])
	assert.Equal(t, int64(1), counters.counts[redis.DailyLimitKey("CREATE", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), "u1")])
}

func TestDailyLimiter_FailsClosedWhenStoreDown(t *testing.T) {
	counters := newFakeCounterStore()
	counters.err = fmt.Errorf("connection refused")
	limiter := NewDailyLimiter(counters, clockwork.NewFakeClock())

	_, err := limiter.CheckAndIncrement(context.Background(), "VOTE", "u1", 20)
	require.ErrorIs(t, err, apperrors.ErrDependencyUnavailable)
}
