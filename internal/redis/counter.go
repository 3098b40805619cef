package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key schema:
//   limit:{TYPE}:{YYYY-MM-DD}:{userID}   — daily action counter, 24h TTL
//   processed:{TYPE}:{referenceID}       — accrual dedupe marker, 24h TTL

const counterTTL = 24 * time.Hour

// CounterStore backs the daily rate limiter and the accrual dedupe check.
// All state here is ephemeral: a vanished key just resets a day's count.
type CounterStore struct {
	rdb *goredis.Client
}

func NewCounterStore(client *Client) *CounterStore {
	return &CounterStore{rdb: client.rdb}
}

// Increment atomically bumps the counter and returns the post-increment
// count. The first increment of a key sets the 24h expiry so counters
// disappear on their own; there is no reset job.
func (s *CounterStore) Increment(ctx context.Context, key string) (int64, error) {
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, key, counterTTL).Err(); err != nil {
			return count, fmt.Errorf("failed to set counter expiry %s: %w", key, err)
		}
	}
	return count, nil
}

// ClaimOnce marks key as processed, returning true only for the first
// caller within the TTL window.
func (s *CounterStore) ClaimOnce(ctx context.Context, key string) (bool, error) {
	set, err := s.rdb.SetNX(ctx, key, "1", counterTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return set, nil
}

// Release drops a claim so a failed operation can be redelivered.
func (s *CounterStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

func DailyLimitKey(actionType string, day time.Time, userID string) string {
	return "limit:" + actionType + ":" + day.Format("2006-01-02") + ":" + userID
}

func ProcessedKey(actionType, referenceID string) string {
	return "processed:" + actionType + ":" + referenceID
}
