package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardStore_IncrementAndRange(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()

	require.NoError(t, store.IncrementScore(ctx, WeeklyLeaderboardKey, "u1", 100))
	require.NoError(t, store.IncrementScore(ctx, WeeklyLeaderboardKey, "u2", 300))
	require.NoError(t, store.IncrementScore(ctx, WeeklyLeaderboardKey, "u1", 50))

	entries, err := store.Range(ctx, WeeklyLeaderboardKey, 0, -1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Member: "u2", Score: 300}, entries[0])
	assert.Equal(t, Entry{Member: "u1", Score: 150}, entries[1])
}

func TestLeaderboardStore_RangeWindow(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()

	require.NoError(t, store.IncrementScore(ctx, SchoolLeaderboardKey, "s1", 30))
	require.NoError(t, store.IncrementScore(ctx, SchoolLeaderboardKey, "s2", 20))
	require.NoError(t, store.IncrementScore(ctx, SchoolLeaderboardKey, "s3", 10))

	entries, err := store.Range(ctx, SchoolLeaderboardKey, 1, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "s2", entries[0].Member)
	assert.Equal(t, "s3", entries[1].Member)
}

func TestLeaderboardStore_Score(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()

	require.NoError(t, store.IncrementScore(ctx, WeeklyLeaderboardKey, "u1", 42))

	score, ok, err := store.Score(ctx, WeeklyLeaderboardKey, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), score)

	_, ok, err = store.Score(ctx, WeeklyLeaderboardKey, "nobody")
	require.NoError(t, err)
	assert.False(t, ok, "an absent member is not an error")
}
