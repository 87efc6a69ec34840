package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attaboy/playerdata/internal/account"
	"github.com/attaboy/playerdata/internal/app"
	"github.com/attaboy/playerdata/internal/auth"
	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/handler"
	"github.com/attaboy/playerdata/internal/infra"
	"github.com/attaboy/playerdata/internal/ledger"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/attaboy/playerdata/internal/projection"
	"github.com/attaboy/playerdata/internal/session"
	"github.com/attaboy/playerdata/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// backend is what a store contributes to the server.
type backend interface {
	session.Loader
	ledger.Persister
	handler.IdentityStore
	handler.Pinger
	multiplier.BoostSource
	infra.OutboxSource
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	level, _ := infra.ParseLogLevel(cfg.LogLevel)
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	clk := clock.New()

	// Storage
	var players backend
	switch cfg.StoreBackend {
	case infra.BackendMemory:
		mem := store.NewMemory(clk)
		players = mem

		producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
		defer producer.Close()
		if cfg.KafkaEnabled {
			infra.NewOutboxPoller(mem, producer, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize).Start(ctx)
		}
		logger.Warn("using in-memory store; balances are lost on restart")
	default:
		if cfg.RunMigrations {
			if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		players = store.NewPostgres(pool, clk)
		logger.Info("connected to postgres")
	}
	health := map[string]handler.Pinger{"store": players}

	// Projection cache
	var cache projection.Store = projection.NewInMemoryStore()
	if cfg.RedisEnabled {
		redisStore, err := projection.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisStore.Close()
		cache = redisStore
		health["redis"] = redisStore
		logger.Info("connected to redis")
	}

	// Multipliers
	boosts := multiplier.NewBoosts(players, clk, cfg.BoostCacheTTL)
	if err := boosts.Warm(ctx); err != nil {
		logger.Warn("boost list not loaded; first credits will read it", "error", err)
	}
	policies := []multiplier.Policy{boosts}
	if cfg.MultiplierTable != "" {
		table, err := multiplier.LoadTable(cfg.MultiplierTable)
		if err != nil {
			return fmt.Errorf("load multiplier table: %w", err)
		}
		policies = append(policies, table)
		logger.Info("multiplier table loaded", "path", cfg.MultiplierTable)
	}

	registry := session.NewRegistry(players, account.Options{
		Persister: projection.NewPersister(players, cache, logger),
		Policy:    multiplier.Product(policies...),
		Logger:    logger,
		Clock:     clk,
	})

	r := app.NewRouter(app.RouterDeps{
		Sessions:    registry,
		Identities:  players,
		Projections: cache,
		JWTMgr:      auth.NewJWTManager(cfg.JWTSecret, cfg.JWTServerExpiry, cfg.JWTAdminExpiry),
		Logger:      logger,
		Health:      health,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("playerdata server starting", "addr", addr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
