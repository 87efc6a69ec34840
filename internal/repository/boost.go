package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/infra"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/jackc/pgx/v5/pgtype"
)

type boostRepo struct{}

// NewBoostRepository returns a pgx-backed BoostRepository.
func NewBoostRepository() BoostRepository {
	return &boostRepo{}
}

func (r *boostRepo) ListActive(ctx context.Context, db DBTX, at time.Time) ([]multiplier.Boost, error) {
	rows, err := db.Query(ctx, `
		SELECT id, currency, COALESCE(reason, ''), factor, starts_at, ends_at
		FROM currency_boosts
		WHERE starts_at <= $1 AND ends_at > $1
		ORDER BY starts_at ASC`, at)
	if err != nil {
		return nil, fmt.Errorf("list active boosts: %w", err)
	}
	defer rows.Close()

	var boosts []multiplier.Boost
	for rows.Next() {
		var b multiplier.Boost
		var currency string
		var factor pgtype.Numeric
		if err := rows.Scan(&b.ID, &currency, &b.Reason, &factor, &b.StartsAt, &b.EndsAt); err != nil {
			return nil, fmt.Errorf("scan boost: %w", err)
		}
		if b.Currency, err = domain.ParseCurrency(currency); err != nil {
			return nil, fmt.Errorf("boost %s: %w", b.ID, err)
		}
		if b.Factor, err = infra.NumericToDecimal(factor); err != nil {
			return nil, fmt.Errorf("boost %s factor: %w", b.ID, err)
		}
		boosts = append(boosts, b)
	}
	return boosts, rows.Err()
}
