package queue

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

// memoryQueue implements Queue using a mutex-guarded FIFO slice.
type memoryQueue struct {
	mu      sync.Mutex
	entries []domain.QueueEntry
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{}
}

// Enqueue implements Queue.
func (q *memoryQueue) Enqueue(ctx context.Context, e domain.QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, idx, ok := lo.FindIndexOf(q.entries, func(x domain.QueueEntry) bool {
		return x.ID == e.ID
	}); ok {
		q.entries[idx] = e
		return nil
	}
	q.entries = append(q.entries, e)
	return nil
}

// Remove implements Queue.
func (q *memoryQueue) Remove(ctx context.Context, participantID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = lo.Filter(q.entries, func(x domain.QueueEntry, _ int) bool {
		return x.ID != participantID
	})
	return nil
}

// EvictStale implements Queue.
func (q *memoryQueue) EvictStale(ctx context.Context, maxAge time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	q.entries = lo.Filter(q.entries, func(x domain.QueueEntry, _ int) bool {
		return now.Sub(x.QueuedAt) < maxAge
	})
	return nil
}

// TryMatch implements Queue. The pop happens under the same lock as every
// other mutation, so concurrent callers cannot both observe length >= 2
// and pop the same pair.
func (q *memoryQueue) TryMatch(ctx context.Context) (*domain.QueueEntry, *domain.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) < 2 {
		return nil, nil, nil
	}
	first, second := q.entries[0], q.entries[1]
	q.entries = append([]domain.QueueEntry{}, q.entries[2:]...)
	return &first, &second, nil
}

// RestoreFront implements Queue.
func (q *memoryQueue) RestoreFront(ctx context.Context, entries ...domain.QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(append([]domain.QueueEntry{}, entries...), q.entries...)
	return nil
}

// Get implements Queue.
func (q *memoryQueue) Get(ctx context.Context, participantID string) (*domain.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if e.ID == participantID {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

// PositionOf implements Queue.
func (q *memoryQueue) PositionOf(ctx context.Context, participantID string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ID == participantID {
			return i + 1, nil
		}
	}
	return 0, nil
}

// Refresh implements Queue.
func (q *memoryQueue) Refresh(ctx context.Context, participantID string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		if q.entries[i].ID == participantID {
			q.entries[i].QueuedAt = at
			break
		}
	}
	return nil
}

// Len implements Queue.
func (q *memoryQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries), nil
}

// Close implements Queue.
func (q *memoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = nil
	return nil
}
