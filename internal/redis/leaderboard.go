package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Key schema:
//   leaderboard:weekly   — zset: userID → accumulated points
//   leaderboard:school   — zset: schoolName → summed member points
//
// Scores mirror total_accumulated_points in mysql, which stays the source
// of truth. Every write here is advisory; readers tolerate drift.

const (
	WeeklyLeaderboardKey = "leaderboard:weekly"
	SchoolLeaderboardKey = "leaderboard:school"
)

// Entry is one scored member of a leaderboard.
type Entry struct {
	Member string
	Score  int64
}

// LeaderboardStore maintains the zsets behind the ranking engine.
type LeaderboardStore struct {
	rdb *goredis.Client
}

func NewLeaderboardStore(client *Client) *LeaderboardStore {
	return &LeaderboardStore{rdb: client.rdb}
}

// IncrementScore bumps member's score by delta (ZINCRBY).
func (s *LeaderboardStore) IncrementScore(ctx context.Context, key, member string, delta int64) error {
	if err := s.rdb.ZIncrBy(ctx, key, float64(delta), member).Err(); err != nil {
		return fmt.Errorf("failed to increment score %s/%s: %w", key, member, err)
	}
	return nil
}

// Range returns members ordered by score descending (ZREVRANGE WITHSCORES).
// stop == -1 means through the end. Redis breaks score ties by member
// descending; callers that need a different tie-break must re-sort.
func (s *LeaderboardStore) Range(ctx context.Context, key string, start, stop int64) ([]Entry, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard %s: %w", key, err)
	}
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Member: member, Score: int64(z.Score)})
	}
	return entries, nil
}

// Score returns member's score, with ok=false when the member is absent.
func (s *LeaderboardStore) Score(ctx context.Context, key, member string) (int64, bool, error) {
	score, err := s.rdb.ZScore(ctx, key, member).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read score %s/%s: %w", key, member, err)
	}
	return int64(score), true, nil
}
