package repository

import (
	"context"
	"time"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PlayerRepository provides access to players.
type PlayerRepository interface {
	// FindByID returns a player with both balances, or nil if missing.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.PlayerData, error)

	// UpsertIdentity inserts the player with zero balances or updates its names.
	UpsertIdentity(ctx context.Context, db DBTX, identity domain.Identity) (*domain.PlayerData, error)

	// CompareAndSetBalance moves one currency column from prev to next.
	// It returns false when the stored value is not prev or the player is missing.
	CompareAndSetBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, currency domain.Currency, prev, next int64) (bool, error)

	// Exists reports whether the player row exists.
	Exists(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the balance update).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events in insertion order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRow, error)

	// MarkPublished deletes published events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}

// BoostRepository provides access to currency_boosts.
type BoostRepository interface {
	// ListActive returns boosts whose window contains at.
	ListActive(ctx context.Context, db DBTX, at time.Time) ([]multiplier.Boost, error)
}
