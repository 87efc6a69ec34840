package ledger

import (
	"context"

	"github.com/attaboy/playerdata/internal/domain"
)

// Credit adds req.Amount, scaled by the multiplier policy unless skipped.
func (l *Ledger) Credit(ctx context.Context, req CreditRequest) (Receipt, error) {
	receipt, err := l.apply(ctx, mutation{
		kind:       domain.KindCredit,
		reason:     req.reason(),
		amount:     req.Amount,
		multiplied: !req.SkipMultiplier,
	})
	req.Notify.Deliver(receipt, err)
	return receipt, err
}

// CreditAsync runs Credit on a new goroutine. The callback is the only way
// to learn the outcome. A sealed ledger refuses with STALE_ACCOUNT, which is
// also delivered to the callback.
func (l *Ledger) CreditAsync(ctx context.Context, req CreditRequest) error {
	err := l.goAsync(func() { _, _ = l.Credit(ctx, req) })
	if err != nil {
		req.Notify.Deliver(l.receipt(l.Balance(), 0, unit), err)
	}
	return err
}
