package account

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/ledger"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/google/uuid"
)

// Account is the capability set every player account backend exposes.
type Account interface {
	PlayerID() uuid.UUID
	DisplayName() string
	HasNickname() bool

	Credit(ctx context.Context, c domain.Currency, req ledger.CreditRequest) (ledger.Receipt, error)
	Withdraw(ctx context.Context, c domain.Currency, req ledger.WithdrawRequest) (ledger.Receipt, error)
	CreditAsync(ctx context.Context, c domain.Currency, req ledger.CreditRequest) error
	WithdrawAsync(ctx context.Context, c domain.Currency, req ledger.WithdrawRequest) error
	Increase(ctx context.Context, c domain.Currency, by int64) (int64, error)
	Decrease(ctx context.Context, c domain.Currency, by int64) (int64, error)
	Balance(c domain.Currency) (int64, error)
	HasEnough(c domain.Currency, amount int64) (bool, error)
}

// Options configures the collaborators shared by both ledgers of an account.
type Options struct {
	Persister ledger.Persister
	Policy    multiplier.Policy
	Logger    *slog.Logger
	Clock     clock.Clock
}

// PlayerAccount binds one player id to a coins ledger and a stars ledger.
// Identity metadata has its own lock and never contends with balance updates.
type PlayerAccount struct {
	id    uuid.UUID
	coins *ledger.Ledger
	stars *ledger.Ledger
	stale atomic.Bool

	mu       sync.RWMutex
	identity domain.Identity
}

var _ Account = (*PlayerAccount)(nil)

// New builds an account from loaded player data.
func New(data domain.PlayerData, opts Options) (*PlayerAccount, error) {
	if data.PlayerID == uuid.Nil {
		return nil, domain.ErrInvalidArgument("player id is required")
	}
	a := &PlayerAccount{id: data.PlayerID, identity: data.Identity}

	build := func(c domain.Currency) (*ledger.Ledger, error) {
		return ledger.New(ledger.Config{
			PlayerID:  data.PlayerID,
			Currency:  c,
			Initial:   data.Balance(c),
			Persister: opts.Persister,
			Policy:    opts.Policy,
			Guard:     a.guard,
			OnStale:   a.Supersede,
			Logger:    opts.Logger,
			Clock:     opts.Clock,
		})
	}
	var err error
	if a.coins, err = build(domain.Coins); err != nil {
		return nil, err
	}
	if a.stars, err = build(domain.Stars); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *PlayerAccount) guard() error {
	if a.stale.Load() {
		return domain.ErrStaleAccount(a.id.String())
	}
	return nil
}

// PlayerID returns the immutable player id.
func (a *PlayerAccount) PlayerID() uuid.UUID { return a.id }

func (a *PlayerAccount) Identity() domain.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.identity
}

func (a *PlayerAccount) CustomName() string { return a.Identity().CustomName }
func (a *PlayerAccount) EffectiveName() string { return a.Identity().EffectiveName }
func (a *PlayerAccount) LastRefresh() time.Time { return a.Identity().LastRefresh }
func (a *PlayerAccount) DisplayName() string { return a.Identity().DisplayName() }
func (a *PlayerAccount) HasNickname() bool { return a.Identity().HasNickname() }

// ApplyIdentity replaces the identity metadata. Balances are untouched.
func (a *PlayerAccount) ApplyIdentity(identity domain.Identity) error {
	if identity.PlayerID != a.id {
		return domain.ErrInvalidArgument("identity belongs to player " + identity.PlayerID.String())
	}
	a.mu.Lock()
	a.identity = identity
	a.mu.Unlock()
	return nil
}

// Supersede marks the account stale. Every later mutation fails with
// STALE_ACCOUNT and no new async mutation starts. It runs on refresh, unload,
// and whenever the persister reports the durable balance moved.
func (a *PlayerAccount) Supersede() {
	a.stale.Store(true)
	if a.coins != nil {
		a.coins.Seal()
	}
	if a.stars != nil {
		a.stars.Seal()
	}
}

// Stale reports whether the account has been superseded.
func (a *PlayerAccount) Stale() bool { return a.stale.Load() }

// Ledger returns the ledger for one currency.
func (a *PlayerAccount) Ledger(c domain.Currency) (*ledger.Ledger, error) {
	switch c {
	case domain.Coins:
		return a.coins, nil
	case domain.Stars:
		return a.stars, nil
	default:
		return nil, domain.ErrInvalidArgument("unknown currency: " + string(c))
	}
}

func (a *PlayerAccount) Coins() int64 { return a.coins.Balance() }
func (a *PlayerAccount) Stars() int64 { return a.stars.Balance() }

// Snapshot returns both balances. The pair is not read atomically.
func (a *PlayerAccount) Snapshot() (coins, stars int64) {
	return a.coins.Balance(), a.stars.Balance()
}

// Data returns identity plus current balances.
func (a *PlayerAccount) Data() domain.PlayerData {
	coins, stars := a.Snapshot()
	return domain.PlayerData{Identity: a.Identity(), Coins: coins, Stars: stars}
}

// Wait blocks until async mutations on both ledgers have finished or ctx is done.
func (a *PlayerAccount) Wait(ctx context.Context) error {
	if err := a.coins.Wait(ctx); err != nil {
		return err
	}
	return a.stars.Wait(ctx)
}
