package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/panatch1992-cell/mindfitness-chat/internal/ai"
	"github.com/panatch1992-cell/mindfitness-chat/internal/config"
	"github.com/panatch1992-cell/mindfitness-chat/internal/logger"
	"github.com/panatch1992-cell/mindfitness-chat/internal/policy"
	"github.com/panatch1992-cell/mindfitness-chat/internal/queue"
	"github.com/panatch1992-cell/mindfitness-chat/internal/service"
	"github.com/panatch1992-cell/mindfitness-chat/internal/store"
	transport "github.com/panatch1992-cell/mindfitness-chat/internal/transport/http"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	log := logger.L
	log.Info("starting chat service",
		"port", cfg.Port,
		"database", cfg.DatabaseURL,
		"queueDriver", cfg.QueueDriver)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to initialize store", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize matching queue
	var queueOpts []queue.Option
	if queue.Driver(cfg.QueueDriver) == queue.DriverRedis {
		queueOpts = append(queueOpts,
			queue.WithRedisClient(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})),
			queue.WithRedisTTL(cfg.RedisQueueTTL))
	}
	matchQueue, err := queue.New(queue.Driver(cfg.QueueDriver), queueOpts...)
	if err != nil {
		log.Error("failed to initialize queue", "err", err)
		os.Exit(1)
	}
	defer matchQueue.Close()

	// Initialize AI responder. Without an API key the responder serves
	// canned fallback replies.
	var aiClient *ai.Client
	if cfg.AnthropicAPIKey != "" {
		aiClient = ai.NewClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AITimeout)
	} else {
		log.Warn("no AI API key configured, AI partner will use fallback replies")
	}
	responder := ai.NewResponder(aiClient, cfg.ContextGrace, log)

	// Initialize report triage policy
	ctx := context.Background()
	triage, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Error("failed to initialize triage policy", "err", err)
		os.Exit(1)
	}

	// Initialize service and server
	svc := service.New(db, matchQueue, responder, triage, cfg)
	server := transport.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	log.Info("chat service started", "port", cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down chat service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", "err", err)
	}

	log.Info("chat service stopped")
}
