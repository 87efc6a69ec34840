package account

import (
	"context"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/ledger"
)

func (a *PlayerAccount) Credit(ctx context.Context, c domain.Currency, req ledger.CreditRequest) (ledger.Receipt, error) {
	l, err := a.Ledger(c)
	if err != nil {
		req.Notify.Deliver(ledger.Receipt{PlayerID: a.id, Currency: c}, err)
		return ledger.Receipt{}, err
	}
	return l.Credit(ctx, req)
}

func (a *PlayerAccount) Withdraw(ctx context.Context, c domain.Currency, req ledger.WithdrawRequest) (ledger.Receipt, error) {
	l, err := a.Ledger(c)
	if err != nil {
		req.Notify.Deliver(ledger.Receipt{PlayerID: a.id, Currency: c}, err)
		return ledger.Receipt{}, err
	}
	return l.Withdraw(ctx, req)
}

// CreditAsync starts a credit in the background. An unknown currency or a
// superseded account is reported synchronously and to the callback.
func (a *PlayerAccount) CreditAsync(ctx context.Context, c domain.Currency, req ledger.CreditRequest) error {
	l, err := a.Ledger(c)
	if err != nil {
		req.Notify.Deliver(ledger.Receipt{PlayerID: a.id, Currency: c}, err)
		return err
	}
	return l.CreditAsync(ctx, req)
}

func (a *PlayerAccount) WithdrawAsync(ctx context.Context, c domain.Currency, req ledger.WithdrawRequest) error {
	l, err := a.Ledger(c)
	if err != nil {
		req.Notify.Deliver(ledger.Receipt{PlayerID: a.id, Currency: c}, err)
		return err
	}
	return l.WithdrawAsync(ctx, req)
}

func (a *PlayerAccount) Increase(ctx context.Context, c domain.Currency, by int64) (int64, error) {
	l, err := a.Ledger(c)
	if err != nil {
		return 0, err
	}
	return l.Increase(ctx, by)
}

func (a *PlayerAccount) Decrease(ctx context.Context, c domain.Currency, by int64) (int64, error) {
	l, err := a.Ledger(c)
	if err != nil {
		return 0, err
	}
	return l.Decrease(ctx, by)
}

func (a *PlayerAccount) Balance(c domain.Currency) (int64, error) {
	l, err := a.Ledger(c)
	if err != nil {
		return 0, err
	}
	return l.Balance(), nil
}

func (a *PlayerAccount) HasEnough(c domain.Currency, amount int64) (bool, error) {
	l, err := a.Ledger(c)
	if err != nil {
		return false, err
	}
	return l.HasEnough(amount), nil
}
