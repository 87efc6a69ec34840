package projection

import (
	"context"
	"log/slog"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/ledger"
)

// Persister updates the balance projection after the inner sink accepted a
// change. Projection errors are logged and never fail the mutation.
type Persister struct {
	inner  ledger.Persister
	store  Store
	logger *slog.Logger
}

var _ ledger.Persister = (*Persister)(nil)

// NewPersister wraps inner.
func NewPersister(inner ledger.Persister, store Store, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{inner: inner, store: store, logger: logger}
}

func (p *Persister) Persist(ctx context.Context, change domain.BalanceChange) error {
	if err := p.inner.Persist(ctx, change); err != nil {
		return err
	}
	err := UpdateBalance(ctx, p.store, BalanceProjection{
		PlayerID: change.PlayerID.String(),
		Currency: change.Currency,
		Balance:  change.NewBalance,
	})
	if err != nil {
		p.logger.Warn("update balance projection",
			"player_id", change.PlayerID.String(),
			"currency", string(change.Currency),
			"error", err,
		)
	}
	return nil
}
