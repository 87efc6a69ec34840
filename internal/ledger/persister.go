package ledger

import (
	"context"

	"github.com/attaboy/playerdata/internal/domain"
)

// Persister makes a balance change durable. The ledger commits the change in
// memory only after Persist returns nil.
type Persister interface {
	Persist(ctx context.Context, change domain.BalanceChange) error
}

// PersisterFunc adapts a function to a Persister.
type PersisterFunc func(ctx context.Context, change domain.BalanceChange) error

func (f PersisterFunc) Persist(ctx context.Context, change domain.BalanceChange) error {
	return f(ctx, change)
}

// Discard accepts every change without storing it.
var Discard Persister = PersisterFunc(func(context.Context, domain.BalanceChange) error { return nil })
