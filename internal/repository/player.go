package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type playerRepo struct{}

// NewPlayerRepository returns a pgx-backed PlayerRepository.
func NewPlayerRepository() PlayerRepository {
	return &playerRepo{}
}

const playerColumns = `id, effective_name, COALESCE(custom_name, ''), coins, stars, updated_at`

func (r *playerRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.PlayerData, error) {
	row := db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *playerRepo) UpsertIdentity(ctx context.Context, db DBTX, identity domain.Identity) (*domain.PlayerData, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO players (id, effective_name, custom_name)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (id) DO UPDATE
		  SET effective_name = EXCLUDED.effective_name,
		      custom_name    = EXCLUDED.custom_name,
		      updated_at     = now()
		RETURNING `+playerColumns,
		identity.PlayerID, identity.EffectiveName, identity.CustomName)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("upsert identity: %w", err)
	}
	return p, nil
}

// CompareAndSetBalance only touches the column of the given currency; the
// column name comes from a closed set and is never user input.
func (r *playerRepo) CompareAndSetBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, currency domain.Currency, prev, next int64) (bool, error) {
	column, err := balanceColumn(currency)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE players SET %[1]s = $1, updated_at = now()
		WHERE id = $2 AND %[1]s = $3`, column),
		next, id, prev)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", column, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *playerRepo) Exists(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM players WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check player exists: %w", err)
	}
	return exists, nil
}

func balanceColumn(c domain.Currency) (string, error) {
	switch c {
	case domain.Coins:
		return "coins", nil
	case domain.Stars:
		return "stars", nil
	default:
		return "", domain.ErrInvalidArgument("unknown currency: " + string(c))
	}
}

func scanPlayer(row pgx.Row) (*domain.PlayerData, error) {
	var p domain.PlayerData
	err := row.Scan(&p.PlayerID, &p.EffectiveName, &p.CustomName, &p.Coins, &p.Stars, &p.LastRefresh)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	return &p, nil
}
