package ledger

import (
	"context"

	"github.com/attaboy/playerdata/internal/domain"
)

// Increase adds by without a multiplier and returns the resulting balance.
func (l *Ledger) Increase(ctx context.Context, by int64) (int64, error) {
	receipt, err := l.apply(ctx, mutation{kind: domain.KindIncrease, amount: by})
	return receipt.NewBalance, err
}

// Decrease subtracts by and returns the resulting balance.
func (l *Ledger) Decrease(ctx context.Context, by int64) (int64, error) {
	receipt, err := l.apply(ctx, mutation{kind: domain.KindDecrease, amount: by})
	return receipt.NewBalance, err
}
