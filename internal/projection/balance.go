package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
)

// BalanceProjection represents a cached balance of one currency.
type BalanceProjection struct {
	PlayerID  string          `json:"player_id"`
	Currency  domain.Currency `json:"currency"`
	Balance   int64           `json:"balance"`
	UpdatedAt string          `json:"updated_at"`
}

const balanceTTL = 5 * time.Minute

func balanceKey(playerID string, currency domain.Currency) string {
	return fmt.Sprintf("projection:balance:%s:%s", playerID, currency)
}

// UpdateBalance caches a balance projection.
func UpdateBalance(ctx context.Context, store Store, p BalanceProjection) error {
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return SetJSON(ctx, store, balanceKey(p.PlayerID, p.Currency), p, balanceTTL)
}

// GetBalance retrieves a cached balance projection.
func GetBalance(ctx context.Context, store Store, playerID string, currency domain.Currency) (*BalanceProjection, error) {
	var p BalanceProjection
	if err := GetJSON(ctx, store, balanceKey(playerID, currency), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateBalance removes the cached balances of both currencies.
func InvalidateBalance(ctx context.Context, store Store, playerID uuid.UUID) error {
	for _, c := range domain.Currencies() {
		if err := store.Delete(ctx, balanceKey(playerID.String(), c)); err != nil {
			return err
		}
	}
	return nil
}
