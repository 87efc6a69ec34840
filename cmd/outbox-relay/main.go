package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/infra"
	"github.com/attaboy/playerdata/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox relay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreBackend != infra.BackendPostgres {
		return fmt.Errorf("outbox relay needs STORE_BACKEND=%s, got %q", infra.BackendPostgres, cfg.StoreBackend)
	}
	if !cfg.KafkaEnabled {
		logger.Warn("KAFKA_ENABLED is false; events will be dropped as they are relayed")
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("outbox relay connected to postgres")

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	poller := infra.NewOutboxPoller(store.NewPostgres(pool, clock.New()), producer, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	poller.Run(ctx)

	logger.Info("outbox relay shutting down")
	return nil
}
