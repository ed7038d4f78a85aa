package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cravewave/api/internal/cart"
	"github.com/cravewave/api/internal/config"
	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/events"
	"github.com/cravewave/api/internal/logging"
	"github.com/cravewave/api/internal/router"
	"github.com/cravewave/api/internal/ws"
)

func main() {
	logging.Setup()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("ping database", "error", err)
		os.Exit(1)
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		slog.Error("apply schema", "error", err)
		os.Exit(1)
	}

	queries := database.New(pool)

	carts := newCartRepository(ctx, cfg)

	hub := ws.NewHub()
	go hub.Run()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	r := router.New(cfg, queries, pool, carts, hub, publisher)

	slog.Info("starting server", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newCartRepository prefers Redis so storefront carts survive restarts, but a
// missing or unreachable Redis only degrades to in-process carts.
func newCartRepository(ctx context.Context, cfg *config.Config) cart.Repository {
	if cfg.RedisURL == "" {
		slog.Info("no REDIS_URL configured, using in-memory carts")
		return cart.NewMemoryRepository()
	}
	repo, err := cart.NewRedisRepository(cfg.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, using in-memory carts", "error", err)
		return cart.NewMemoryRepository()
	}
	if err := repo.Ping(ctx); err != nil {
		slog.Warn("redis unreachable, using in-memory carts", "error", err)
		return cart.NewMemoryRepository()
	}
	slog.Info("using redis carts")
	return repo
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.AmqpURL == "" {
		slog.Info("no AMQP_URL configured, order events disabled")
		return events.NoopPublisher{}
	}
	pub, err := events.NewAmqpPublisher(cfg.AmqpURL)
	if err != nil {
		slog.Warn("amqp unavailable, order events disabled", "error", err)
		return events.NoopPublisher{}
	}
	slog.Info("publishing order events to rabbitmq")
	return pub
}
