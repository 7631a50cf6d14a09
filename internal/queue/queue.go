// Package queue holds waiting participants in arrival order and
// exposes admission, staleness eviction and pair matching.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

var (
	ErrInvalidDriver = errors.New("invalid queue driver")
	ErrInvalidConfig = errors.New("invalid queue configuration")
)

// Queue is the matching queue. All mutations on a single driver instance
// appear atomic relative to each other; two concurrent TryMatch calls can
// never pop the same entry twice.
type Queue interface {
	// Enqueue adds an entry at the tail. If an entry with the same id
	// already exists it is replaced in place, keeping its position.
	Enqueue(ctx context.Context, e domain.QueueEntry) error

	// Remove drops the entry with the given id. No-op if absent.
	Remove(ctx context.Context, participantID string) error

	// EvictStale silently drops entries queued longer than maxAge ago.
	EvictStale(ctx context.Context, maxAge time.Duration) error

	// TryMatch pops the two oldest entries when at least two are waiting.
	// Returns (nil, nil, nil) otherwise.
	TryMatch(ctx context.Context) (*domain.QueueEntry, *domain.QueueEntry, error)

	// RestoreFront puts entries back at the head of the queue in the given
	// order. Used to undo a TryMatch pop when session creation fails.
	RestoreFront(ctx context.Context, entries ...domain.QueueEntry) error

	// Get returns the entry with the given id, or nil if not queued.
	Get(ctx context.Context, participantID string) (*domain.QueueEntry, error)

	// PositionOf returns the 1-based queue position, or 0 if not queued.
	PositionOf(ctx context.Context, participantID string) (int, error)

	// Refresh updates the entry's queued-at timestamp, keeping its
	// position. No-op if absent.
	Refresh(ctx context.Context, participantID string, at time.Time) error

	// Len returns the number of waiting entries.
	Len(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}

// Driver selects the queue backing.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
)

// New creates a Queue for the given driver.
// The redis driver requires WithRedisClient.
func New(driver Driver, opts ...Option) (Queue, error) {
	cfg := &driverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return newMemoryQueue(), nil

	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := cfg.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisQueue{client: cfg.redisClient, ttl: ttl}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
