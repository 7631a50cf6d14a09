package queue

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type driverConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
}

// Option configures a queue driver.
type Option func(*driverConfig)

// WithRedisClient sets the redis client for the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *driverConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the per-entry TTL for the redis driver.
func WithRedisTTL(ttl time.Duration) Option {
	return func(c *driverConfig) {
		c.redisTTL = ttl
	}
}
