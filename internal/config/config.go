// Package config provides configuration for the chat service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the chat service configuration.
type Config struct {
	// Server
	Port int `env:"PORT" envDefault:"8080"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:mindchat.db?cache=shared&mode=rwc"`

	// Matching queue
	QueueDriver     string        `env:"QUEUE_DRIVER" envDefault:"memory"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisQueueTTL   time.Duration `env:"REDIS_QUEUE_TTL" envDefault:"24h"`
	QueueStaleAfter time.Duration `env:"QUEUE_STALE_AFTER" envDefault:"60s"`
	SuggestAIAfter  time.Duration `env:"SUGGEST_AI_AFTER" envDefault:"15s"`

	// AI partner
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string        `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	AnthropicModel   string        `env:"ANTHROPIC_MODEL" envDefault:"claude-3-haiku-20240307"`
	AITimeout        time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`
	ContextGrace     time.Duration `env:"CONTEXT_GRACE" envDefault:"5m"`

	// Message history
	MessageHistoryLimit int `env:"MESSAGE_HISTORY_LIMIT" envDefault:"100"`
	MessageRetention    int `env:"MESSAGE_RETENTION" envDefault:"200"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
