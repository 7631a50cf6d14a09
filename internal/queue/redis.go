package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

const (
	// Redis key for the FIFO list of waiting participant ids
	queueListKey = "chat:queue"
	// Redis key prefix for per-participant entries
	entryKeyPrefix = "chat:queue:entry:"
)

// redisQueue implements Queue on a Redis list plus one JSON value per
// entry. Entries carry a TTL so abandoned participants age out even
// without an explicit eviction pass. The driver assumes a single service
// instance mutates the queue; matching correctness across instances is
// not guaranteed by this design.
type redisQueue struct {
	client *redis.Client
	ttl    time.Duration
}

func (q *redisQueue) key(id string) string {
	return entryKeyPrefix + id
}

// Enqueue implements Queue. Replacing an existing entry keeps its list
// position; only the payload is rewritten.
func (q *redisQueue) Enqueue(ctx context.Context, e domain.QueueEntry) error {
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}

	exists, err := q.client.Exists(ctx, q.key(e.ID)).Result()
	if err != nil {
		return err
	}

	if err := q.client.Set(ctx, q.key(e.ID), val, q.ttl).Err(); err != nil {
		return err
	}
	if exists == 0 {
		return q.client.RPush(ctx, queueListKey, e.ID).Err()
	}
	return nil
}

// Remove implements Queue.
func (q *redisQueue) Remove(ctx context.Context, participantID string) error {
	if err := q.client.LRem(ctx, queueListKey, 0, participantID).Err(); err != nil {
		return err
	}
	return q.client.Del(ctx, q.key(participantID)).Err()
}

// EvictStale implements Queue. Entries whose payload expired via TTL are
// dropped from the list as well.
func (q *redisQueue) EvictStale(ctx context.Context, maxAge time.Duration) error {
	ids, err := q.client.LRange(ctx, queueListKey, 0, -1).Result()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, id := range ids {
		e, err := q.getEntry(ctx, id)
		if err != nil {
			return err
		}
		if e == nil || now.Sub(e.QueuedAt) >= maxAge {
			if err := q.Remove(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// TryMatch implements Queue. Ids whose payload has already expired are
// skipped; a lone survivor is pushed back to the head. When a step fails
// after ids have been popped, those ids are pushed back in their original
// order so a transient error never drops a waiting participant.
func (q *redisQueue) TryMatch(ctx context.Context) (*domain.QueueEntry, *domain.QueueEntry, error) {
	var popped []string
	var matched []domain.QueueEntry

	for len(matched) < 2 {
		id, err := q.client.LPop(ctx, queueListKey).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return nil, nil, q.undoPop(ctx, popped, err)
		}

		e, err := q.getEntry(ctx, id)
		if err != nil {
			return nil, nil, q.undoPop(ctx, append(popped, id), err)
		}
		if e == nil {
			continue // expired while queued
		}
		popped = append(popped, id)
		matched = append(matched, *e)
	}

	if len(matched) < 2 {
		if len(matched) == 1 {
			if err := q.client.LPush(ctx, queueListKey, matched[0].ID).Err(); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}

	if err := q.client.Del(ctx, q.key(matched[0].ID), q.key(matched[1].ID)).Err(); err != nil {
		return nil, nil, q.undoPop(ctx, popped, err)
	}
	return &matched[0], &matched[1], nil
}

// undoPop pushes popped ids back to the head of the list in their
// original order and returns cause, joined with any push-back failure.
func (q *redisQueue) undoPop(ctx context.Context, ids []string, cause error) error {
	for i := len(ids) - 1; i >= 0; i-- {
		if err := q.client.LPush(ctx, queueListKey, ids[i]).Err(); err != nil {
			return errors.Join(cause, err)
		}
	}
	return cause
}

// RestoreFront implements Queue.
func (q *redisQueue) RestoreFront(ctx context.Context, entries ...domain.QueueEntry) error {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		val, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := q.client.Set(ctx, q.key(e.ID), val, q.ttl).Err(); err != nil {
			return err
		}
		if err := q.client.LPush(ctx, queueListKey, e.ID).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Get implements Queue.
func (q *redisQueue) Get(ctx context.Context, participantID string) (*domain.QueueEntry, error) {
	return q.getEntry(ctx, participantID)
}

// PositionOf implements Queue.
func (q *redisQueue) PositionOf(ctx context.Context, participantID string) (int, error) {
	ids, err := q.client.LRange(ctx, queueListKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if id == participantID {
			return i + 1, nil
		}
	}
	return 0, nil
}

// Refresh implements Queue.
func (q *redisQueue) Refresh(ctx context.Context, participantID string, at time.Time) error {
	e, err := q.getEntry(ctx, participantID)
	if err != nil || e == nil {
		return err
	}
	e.QueuedAt = at
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, q.key(participantID), val, q.ttl).Err()
}

// Len implements Queue.
func (q *redisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, queueListKey).Result()
	return int(n), err
}

// Close implements Queue.
func (q *redisQueue) Close() error {
	return q.client.Close()
}

func (q *redisQueue) getEntry(ctx context.Context, id string) (*domain.QueueEntry, error) {
	val, err := q.client.Get(ctx, q.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var e domain.QueueEntry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, err
	}
	return &e, nil
}
