package store

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/infra"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/attaboy/playerdata/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the durable player store. Each balance change is a
// compare-and-set on the player row plus an outbox event, in one transaction.
type Postgres struct {
	pool    *pgxpool.Pool
	players repository.PlayerRepository
	outbox  repository.OutboxRepository
	boosts  repository.BoostRepository
	clock   clock.Clock
}

// NewPostgres creates a store over the given pool.
func NewPostgres(pool *pgxpool.Pool, clk clock.Clock) *Postgres {
	if clk == nil {
		clk = clock.New()
	}
	return &Postgres{
		pool:    pool,
		players: repository.NewPlayerRepository(),
		outbox:  repository.NewOutboxRepository(),
		boosts:  repository.NewBoostRepository(),
		clock:   clk,
	}
}

// LoadPlayer returns identity and stored balances.
func (s *Postgres) LoadPlayer(ctx context.Context, id uuid.UUID) (domain.PlayerData, error) {
	p, err := s.players.FindByID(ctx, s.pool, id)
	if err != nil {
		return domain.PlayerData{}, fmt.Errorf("find player: %w", err)
	}
	if p == nil {
		return domain.PlayerData{}, domain.ErrNotFound("player", id.String())
	}
	return *p, nil
}

// UpsertIdentity creates the player or replaces its names, and records an
// identity.updated event.
func (s *Postgres) UpsertIdentity(ctx context.Context, identity domain.Identity) (domain.PlayerData, error) {
	if err := validateIdentity(identity); err != nil {
		return domain.PlayerData{}, err
	}
	if identity.LastRefresh.IsZero() {
		identity.LastRefresh = s.clock.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.PlayerData{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := s.players.UpsertIdentity(ctx, tx, identity)
	if err != nil {
		return domain.PlayerData{}, err
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewIdentityUpdatedEvent(identity)); err != nil {
		return domain.PlayerData{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.PlayerData{}, fmt.Errorf("commit: %w", err)
	}
	return *p, nil
}

// Persist implements ledger.Persister.
func (s *Postgres) Persist(ctx context.Context, change domain.BalanceChange) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ok, err := s.players.CompareAndSetBalance(ctx, tx, change.PlayerID, change.Currency, change.Previous, change.NewBalance)
	if err != nil {
		return err
	}
	if !ok {
		return s.casMiss(ctx, tx, change.PlayerID)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewBalanceChangedEvent(change)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Postgres) casMiss(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	exists, err := s.players.Exists(ctx, tx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound("player", id.String())
	}
	return domain.ErrStaleAccount(id.String())
}

// ListActive implements multiplier.BoostSource.
func (s *Postgres) ListActive(ctx context.Context, at time.Time) ([]multiplier.Boost, error) {
	return s.boosts.ListActive(ctx, s.pool, at)
}

// FetchUnpublished returns the next batch of outbox events.
func (s *Postgres) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRow, error) {
	return s.outbox.FetchUnpublished(ctx, s.pool, limit)
}

// MarkPublished removes relayed outbox events.
func (s *Postgres) MarkPublished(ctx context.Context, ids []int64) error {
	return s.outbox.MarkPublished(ctx, s.pool, ids)
}

// Ping checks the database connection.
func (s *Postgres) Ping(ctx context.Context) error {
	return infra.HealthCheck(ctx, s.pool)
}

func validateIdentity(identity domain.Identity) error {
	if identity.PlayerID == uuid.Nil {
		return domain.ErrInvalidArgument("player id is required")
	}
	if err := domain.ValidatePlayerName(identity.EffectiveName); err != nil {
		return err
	}
	if identity.CustomName != "" {
		if err := domain.ValidatePlayerName(identity.CustomName); err != nil {
			return err
		}
	}
	return nil
}
