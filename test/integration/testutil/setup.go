//go:build integration

package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/attaboy/playerdata/internal/account"
	"github.com/attaboy/playerdata/internal/app"
	"github.com/attaboy/playerdata/internal/auth"
	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/handler"
	"github.com/attaboy/playerdata/internal/infra"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/attaboy/playerdata/internal/projection"
	"github.com/attaboy/playerdata/internal/session"
	"github.com/attaboy/playerdata/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TestJWTSecret = "integration-test-secret-at-least-32-chars"
	TestDBHost    = "localhost"
	TestDBPort    = 5435
	TestDBUser    = "playerdata"
	TestDBPass    = "playerdata"
	TestDBName    = "playerdata_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server   *httptest.Server
	Pool     *pgxpool.Pool
	Store    *store.Postgres
	Registry *session.Registry
	Cache    *projection.InMemoryStore
	JWTMgr   *auth.JWTManager
	t        *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "playerdata")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the main database to create the test database
	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		if _, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName)); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

func runMigrations() error {
	return infra.RunMigrations(testDSN(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}
		if err := runMigrations(); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by
// the real router, a Postgres store and the test DB. policy may be nil.
func NewTestEnv(t *testing.T, policy multiplier.Policy) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.New()
	pg := store.NewPostgres(pool, clk)
	cache := projection.NewInMemoryStore()
	jwtMgr := auth.NewJWTManager(TestJWTSecret, time.Hour, time.Hour)

	registry := session.NewRegistry(pg, account.Options{
		Persister: projection.NewPersister(pg, cache, logger),
		Policy:    policy,
		Logger:    logger,
		Clock:     clk,
	})

	router := app.NewRouter(app.RouterDeps{
		Sessions:    registry,
		Identities:  pg,
		Projections: cache,
		JWTMgr:      jwtMgr,
		Logger:      logger,
		Health:      map[string]handler.Pinger{"store": pg},
	})
	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:   server,
		Pool:     pool,
		Store:    pg,
		Registry: registry,
		Cache:    cache,
		JWTMgr:   jwtMgr,
		t:        t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}
