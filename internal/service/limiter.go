package service

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/picknic/picknic-backend/internal/apperrors"
	"github.com/picknic/picknic-backend/internal/redis"
)

// CounterStore is the slice of the fast store the limiter and the ledger's
// dedupe check need. Implemented by redis.CounterStore.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	ClaimOnce(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// DailyLimiter gates quota-limited actions against the fast store. The
// counter is incremented unconditionally and the limit compared against the
// post-increment value, so two racing requests can never both observe the
// last free slot. Counter keys carry a 24h TTL; there is no reset job.
type DailyLimiter struct {
	counters CounterStore
	clock    clockwork.Clock
}

func NewDailyLimiter(counters CounterStore, clock clockwork.Clock) *DailyLimiter {
	return &DailyLimiter{counters: counters, clock: clock}
}

// CheckAndIncrement consumes one unit of today's quota for (actionType,
// userID) and returns the post-increment count. Over the limit it returns
// ErrQuotaExceeded; the slot stays consumed, which only matters past the
// limit anyway. A fast-store failure fails closed with
// ErrDependencyUnavailable: gated actions are never waved through blind.
func (l *DailyLimiter) CheckAndIncrement(ctx context.Context, actionType, userID string, dailyLimit int) (int64, error) {
	key := redis.DailyLimitKey(actionType, l.clock.Now(), userID)
	count, err := l.counters.Increment(ctx, key)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDependencyUnavailable, err)
	}
	if count > int64(dailyLimit) {
		return count, apperrors.Wrapf(apperrors.ErrQuotaExceeded,
			"daily %s limit reached (%d/day)", actionType, dailyLimit)
	}
	return count, nil
}
