package ledger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds everything a Ledger needs.
type Config struct {
	PlayerID  uuid.UUID
	Currency  domain.Currency
	Initial   int64
	Persister Persister
	Policy    multiplier.Policy
	// Guard is checked before each mutation, under the ledger lock.
	Guard func() error
	// OnStale runs when the persister reports STALE_ACCOUNT, under the ledger lock.
	OnStale func()
	Logger  *slog.Logger
	Clock  clock.Clock
}

// Ledger owns one currency balance of one player.
//
// Mutations are serialized by mu, including the durability step. The
// committed balance is published through an atomic so reads never wait on
// an in-flight persist.
type Ledger struct {
	playerID  uuid.UUID
	currency  domain.Currency
	persister Persister
	policy    multiplier.Policy
	guard     func() error
	onStale   func()
	logger    *slog.Logger
	clock     clock.Clock

	mu      sync.Mutex
	balance atomic.Int64
	async   asyncTracker
}

// New creates a ledger. Missing collaborators default to Discard, the unit
// multiplier, the default logger and the system clock.
func New(cfg Config) (*Ledger, error) {
	if !cfg.Currency.Valid() {
		return nil, domain.ErrInvalidArgument("unknown currency: " + string(cfg.Currency))
	}
	if cfg.Initial < 0 {
		return nil, domain.ErrInvalidArgument("initial balance must not be negative")
	}
	l := &Ledger{
		playerID:  cfg.PlayerID,
		currency:  cfg.Currency,
		persister: cfg.Persister,
		policy:    cfg.Policy,
		guard:     cfg.Guard,
		onStale:   cfg.OnStale,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}
	if l.persister == nil {
		l.persister = Discard
	}
	if l.policy == nil {
		l.policy = multiplier.Unit
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.clock == nil {
		l.clock = clock.New()
	}
	l.logger = l.logger.With("player_id", cfg.PlayerID.String(), "currency", string(cfg.Currency))
	l.balance.Store(cfg.Initial)
	return l, nil
}

func (l *Ledger) PlayerID() uuid.UUID { return l.playerID }

func (l *Ledger) Currency() domain.Currency { return l.currency }

// Balance returns the last committed balance.
func (l *Ledger) Balance() int64 {
	return l.balance.Load()
}

// HasEnough reports whether the committed balance covers amount. The answer
// may be outdated by the time a later mutation runs.
func (l *Ledger) HasEnough(amount int64) bool {
	return l.Balance() >= amount
}

// mutation is one pending change to the balance.
type mutation struct {
	kind       domain.MutationKind
	reason     string
	amount     int64
	multiplied bool
}

// apply runs a mutation inside the critical section:
// guard → multiplier → bounds check → persist → commit.
// The lock is released before apply returns.
func (l *Ledger) apply(ctx context.Context, m mutation) (Receipt, error) {
	if err := domain.ValidateAmount(m.amount); err != nil {
		return l.receipt(l.Balance(), 0, unit), err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	previous := l.balance.Load()
	if l.guard != nil {
		if err := l.guard(); err != nil {
			return l.receipt(previous, 0, unit), err
		}
	}

	factor := unit
	applied := m.amount
	if m.multiplied {
		f, err := l.policy.MultiplierFor(ctx, l.currency, m.reason)
		if err != nil {
			l.logger.Error("resolve multiplier", "reason", m.reason, "error", err)
			if _, ok := domain.AsAppError(err); !ok {
				err = domain.ErrInternal("resolve multiplier", err)
			}
			return l.receipt(previous, 0, unit), err
		}
		if applied, err = domain.ApplyMultiplier(m.amount, f); err != nil {
			return l.receipt(previous, 0, unit), err
		}
		factor = f
	}

	next, err := l.next(m.kind, previous, applied)
	if err != nil {
		return l.receipt(previous, 0, factor), err
	}
	if applied == 0 {
		return l.receipt(previous, 0, factor), nil
	}

	change := domain.BalanceChange{
		PlayerID:   l.playerID,
		Currency:   l.currency,
		Kind:       m.kind,
		Reason:     m.reason,
		Requested:  m.amount,
		Applied:    applied,
		Multiplier: factor,
		Previous:   previous,
		NewBalance: next,
		OccurredAt: l.clock.Now(),
	}
	if err := l.persist(ctx, change); err != nil {
		return l.receipt(previous, 0, factor), err
	}

	l.balance.Store(next)
	l.logger.Debug("balance committed", "kind", string(m.kind), "applied", applied, "balance", next)
	return l.receipt(next, applied, factor), nil
}

func (l *Ledger) next(kind domain.MutationKind, previous, applied int64) (int64, error) {
	switch kind {
	case domain.KindCredit, domain.KindIncrease:
		return domain.AddBalance(previous, applied)
	case domain.KindWithdraw, domain.KindDecrease:
		if applied > previous {
			return 0, domain.ErrInsufficientFunds(l.currency, previous, applied)
		}
		return previous - applied, nil
	default:
		return 0, domain.ErrInternal("unknown mutation kind "+string(kind), nil)
	}
}

func (l *Ledger) persist(ctx context.Context, change domain.BalanceChange) error {
	err := l.persister.Persist(ctx, change)
	if err == nil {
		return nil
	}
	l.logger.Error("persist balance change",
		"kind", string(change.Kind),
		"previous", change.Previous,
		"new_balance", change.NewBalance,
		"error", err,
	)
	if domain.HasCode(err, domain.CodeStaleAccount) {
		if l.onStale != nil {
			l.onStale()
		}
		return err
	}
	if domain.HasCode(err, domain.CodeNotFound) {
		return err
	}
	return domain.ErrPersistenceFailure(err)
}

func (l *Ledger) receipt(balance, applied int64, factor decimal.Decimal) Receipt {
	return Receipt{
		PlayerID:      l.playerID,
		Currency:      l.currency,
		NewBalance:    balance,
		AmountApplied: applied,
		Multiplier:    factor,
	}
}

var unit = decimal.NewFromInt(1)
