package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) (Queue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q, err := New(DriverRedis, WithRedisClient(client), WithRedisTTL(time.Hour))
	if err != nil {
		t.Fatalf("failed to create redis queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q, mr
}

func TestRedisEnqueueReplacementKeepsPosition(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, entry("u1", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u2", now)))

	replacement := entry("u1", now.Add(time.Second))
	replacement.Name = "replaced"
	require.NoError(t, q.Enqueue(ctx, replacement))

	pos, err := q.PositionOf(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	got, err := q.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got.Name)

	ids, err := mr.List(queueListKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
}

func TestRedisTryMatchSkipsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, entry("u1", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u2", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u3", now)))

	// u1's payload hit its TTL while the id was still listed.
	mr.Del(entryKeyPrefix + "u1")

	first, second, err := q.TryMatch(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "u2", first.ID)
	assert.Equal(t, "u3", second.ID)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisTryMatchPushesBackLoneSurvivor(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, entry("u1", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u2", now)))
	mr.Del(entryKeyPrefix + "u1")

	first, second, err := q.TryMatch(ctx)
	require.NoError(t, err)
	assert.Nil(t, first)
	assert.Nil(t, second)

	pos, err := q.PositionOf(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
}

func TestRedisTryMatchRestoresPoppedOnError(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, entry("u1", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u2", now)))

	// A corrupt payload fails the entry read after both ids were popped.
	require.NoError(t, mr.Set(entryKeyPrefix+"u2", "{corrupt"))

	_, _, err := q.TryMatch(ctx)
	require.Error(t, err)

	// Neither participant was dropped, original order intact.
	ids, err := mr.List(queueListKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
}

func TestRedisRestoreFrontUndoesPop(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, entry("u1", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u2", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u3", now)))

	first, second, err := q.TryMatch(ctx)
	require.NoError(t, err)

	require.NoError(t, q.RestoreFront(ctx, *first, *second))

	ids, err := mr.List(queueListKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, ids)

	got, err := q.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestRedisEvictStale(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, entry("old", now.Add(-2*time.Minute))))
	require.NoError(t, q.Enqueue(ctx, entry("fresh", now)))

	require.NoError(t, q.EvictStale(ctx, time.Minute))

	ids, err := mr.List(queueListKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
	assert.False(t, mr.Exists(entryKeyPrefix+"old"))
}

func TestRedisRemoveAndRefresh(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestRedisQueue(t)
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, entry("u1", now)))
	require.NoError(t, q.Enqueue(ctx, entry("u2", now)))

	require.NoError(t, q.Remove(ctx, "u1"))
	pos, err := q.PositionOf(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	later := now.Add(30 * time.Second)
	require.NoError(t, q.Refresh(ctx, "u2", later))
	got, err := q.Get(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, got.QueuedAt.Equal(later))
}
