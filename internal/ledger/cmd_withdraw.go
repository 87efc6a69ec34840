package ledger

import (
	"context"

	"github.com/attaboy/playerdata/internal/domain"
)

// Withdraw removes req.Amount. It fails with INSUFFICIENT_FUNDS rather than
// dropping below zero.
func (l *Ledger) Withdraw(ctx context.Context, req WithdrawRequest) (Receipt, error) {
	receipt, err := l.apply(ctx, mutation{
		kind:   domain.KindWithdraw,
		reason: req.Reason,
		amount: req.Amount,
	})
	req.Notify.Deliver(receipt, err)
	return receipt, err
}

// WithdrawAsync runs Withdraw on a new goroutine.
func (l *Ledger) WithdrawAsync(ctx context.Context, req WithdrawRequest) error {
	err := l.goAsync(func() { _, _ = l.Withdraw(ctx, req) })
	if err != nil {
		req.Notify.Deliver(l.receipt(l.Balance(), 0, unit), err)
	}
	return err
}
