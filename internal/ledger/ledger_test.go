package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/attaboy/playerdata/internal/dependencies/mocks"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Persister that records every change it accepts.
type recorder struct {
	mu      sync.Mutex
	changes []domain.BalanceChange
	err     error
}

func (r *recorder) Persist(_ context.Context, c domain.BalanceChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.changes = append(r.changes, c)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func newTestLedger(t *testing.T, initial int64, opts ...func(*Config)) *Ledger {
	t.Helper()
	cfg := Config{
		PlayerID: uuid.New(),
		Currency: domain.Coins,
		Initial:  initial,
		Clock:    mocks.NewMockClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
	}
	for _, o := range opts {
		o(&cfg)
	}
	l, err := New(cfg)
	require.NoError(t, err)
	return l
}

func withPersister(p Persister) func(*Config) {
	return func(c *Config) { c.Persister = p }
}

func withPolicy(p multiplier.Policy) func(*Config) {
	return func(c *Config) { c.Policy = p }
}

// --- Construction ---

func TestNew_Rejects(t *testing.T) {
	_, err := New(Config{Currency: "gems"})
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument))

	_, err = New(Config{Currency: domain.Stars, Initial: -1})
	require.Error(t, err)
}

// --- Credit ---

func TestCredit_AppliesMultiplier(t *testing.T) {
	rec := &recorder{}
	l := newTestLedger(t, 0, withPersister(rec), withPolicy(multiplier.Fixed(decimal.NewFromInt(2))))

	receipt, err := l.Credit(context.Background(), NewCredit(100, "daily_reward"))
	require.NoError(t, err)
	assert.Equal(t, int64(200), receipt.NewBalance)
	assert.Equal(t, int64(200), receipt.AmountApplied)
	assert.True(t, receipt.Multiplier.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int64(200), l.Balance())

	require.Len(t, rec.changes, 1)
	c := rec.changes[0]
	assert.Equal(t, domain.KindCredit, c.Kind)
	assert.Equal(t, "daily_reward", c.Reason)
	assert.Equal(t, int64(100), c.Requested)
	assert.Equal(t, int64(200), c.Applied)
	assert.Equal(t, int64(0), c.Previous)
	assert.Equal(t, int64(200), c.NewBalance)
}

func TestCredit_WithoutMultiplier(t *testing.T) {
	l := newTestLedger(t, 10, withPolicy(multiplier.Fixed(decimal.NewFromInt(5))))

	receipt, err := l.Credit(context.Background(), NewCredit(100, "admin").WithoutMultiplier())
	require.NoError(t, err)
	assert.Equal(t, int64(110), receipt.NewBalance)
	assert.Equal(t, int64(100), receipt.AmountApplied)
	assert.True(t, receipt.Multiplier.Equal(decimal.NewFromInt(1)))
}

func TestCredit_DefaultRequestEquivalence(t *testing.T) {
	var reasons []string
	policy := multiplier.PolicyFunc(func(_ context.Context, _ domain.Currency, reason string) (decimal.Decimal, error) {
		reasons = append(reasons, reason)
		return decimal.NewFromInt(3), nil
	})

	a := newTestLedger(t, 0, withPolicy(policy))
	b := newTestLedger(t, 0, withPolicy(policy))

	ra, err := a.Credit(context.Background(), NewCredit(50, "gift"))
	require.NoError(t, err)
	rb, err := b.Credit(context.Background(), CreditRequest{Amount: 50, Reason: "gift", Notify: NoNotify()})
	require.NoError(t, err)

	assert.Equal(t, ra.NewBalance, rb.NewBalance)
	assert.Equal(t, int64(150), ra.NewBalance)
	assert.Equal(t, []string{"gift", "gift"}, reasons)
}

func TestCredit_EmptyReasonDefaults(t *testing.T) {
	rec := &recorder{}
	l := newTestLedger(t, 0, withPersister(rec))

	_, err := l.Credit(context.Background(), CreditRequest{Amount: 1})
	require.NoError(t, err)
	require.Len(t, rec.changes, 1)
	assert.Equal(t, domain.DefaultCreditReason, rec.changes[0].Reason)
}

func TestCredit_NegativeAmount(t *testing.T) {
	rec := &recorder{}
	l := newTestLedger(t, 10, withPersister(rec))
	cb, ch := Chan()

	_, err := l.Credit(context.Background(), NewCredit(-5, "x").NotifyTo(cb))
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument))
	assert.Equal(t, int64(10), l.Balance())
	assert.Zero(t, rec.count())

	outcome := <-ch
	assert.False(t, outcome.OK())
	assert.True(t, domain.HasCode(outcome.Err, domain.CodeInvalidArgument))
}

func TestCredit_Overflow(t *testing.T) {
	l := newTestLedger(t, 1<<62, withPolicy(multiplier.Fixed(decimal.NewFromInt(2))))
	_, err := l.Credit(context.Background(), NewCredit(1<<62, "x"))
	require.Error(t, err)
	assert.Equal(t, int64(1<<62), l.Balance())
}

func TestCredit_PolicyError(t *testing.T) {
	failing := multiplier.PolicyFunc(func(context.Context, domain.Currency, string) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("boost lookup failed")
	})
	l := newTestLedger(t, 5, withPolicy(failing))

	_, err := l.Credit(context.Background(), NewCredit(10, "x"))
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeInternal))
	assert.Equal(t, int64(5), l.Balance())
}

// --- Withdraw ---

func TestWithdraw_InsufficientFunds(t *testing.T) {
	rec := &recorder{}
	l := newTestLedger(t, 30, withPersister(rec))
	cb, ch := Chan()

	receipt, err := l.Withdraw(context.Background(), NewWithdraw(50).NotifyTo(cb))
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeInsufficientFunds))
	assert.Equal(t, int64(30), receipt.NewBalance)
	assert.Equal(t, int64(30), l.Balance())
	assert.Zero(t, rec.count())

	outcome := <-ch
	assert.True(t, domain.HasCode(outcome.Err, domain.CodeInsufficientFunds))
}

func TestWithdraw_Success(t *testing.T) {
	l := newTestLedger(t, 30, withPolicy(multiplier.Fixed(decimal.NewFromInt(10))))
	cb, ch := Chan()

	receipt, err := l.Withdraw(context.Background(), NewWithdraw(30).NotifyTo(cb))
	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.NewBalance)
	assert.Equal(t, int64(30), receipt.AmountApplied, "withdrawals are never multiplied")

	outcome := <-ch
	require.True(t, outcome.OK())
	assert.Equal(t, int64(0), outcome.Receipt.NewBalance)
}

// --- Increase / Decrease ---

func TestIncreaseDecrease(t *testing.T) {
	l := newTestLedger(t, 0, withPolicy(multiplier.Fixed(decimal.NewFromInt(2))))
	ctx := context.Background()

	bal, err := l.Increase(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(40), bal, "increase ignores the multiplier")

	bal, err = l.Decrease(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(25), bal)

	bal, err = l.Decrease(ctx, 26)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeInsufficientFunds))
	assert.Equal(t, int64(25), bal)

	_, err = l.Increase(ctx, -1)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument))
	_, err = l.Decrease(ctx, -1)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument))
}

func TestZeroIsNoop(t *testing.T) {
	rec := &recorder{}
	l := newTestLedger(t, 7, withPersister(rec))
	ctx := context.Background()

	bal, err := l.Increase(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), bal)

	bal, err = l.Decrease(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), bal)

	receipt, err := l.Credit(ctx, NewCredit(0, "x"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), receipt.NewBalance)

	_, err = l.Withdraw(ctx, NewWithdraw(0))
	require.NoError(t, err)

	assert.Equal(t, int64(7), l.Balance())
	assert.Zero(t, rec.count(), "zero mutations skip persistence")
}

func TestRoundTrip(t *testing.T) {
	l := newTestLedger(t, 123)
	ctx := context.Background()

	_, err := l.Increase(ctx, 77)
	require.NoError(t, err)
	bal, err := l.Decrease(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(123), bal)
}

func TestHasEnough(t *testing.T) {
	l := newTestLedger(t, 10)
	assert.True(t, l.HasEnough(10))
	assert.True(t, l.HasEnough(0))
	assert.False(t, l.HasEnough(11))
}

// --- Persistence failures ---

func TestPersistFailure_RollsBack(t *testing.T) {
	rec := &recorder{err: errors.New("connection reset")}
	l := newTestLedger(t, 50, withPersister(rec))
	cb, ch := Chan()

	_, err := l.Credit(context.Background(), NewCredit(10, "x").NotifyTo(cb))
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodePersistenceFailure))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, int64(50), l.Balance())

	outcome := <-ch
	assert.True(t, domain.HasCode(outcome.Err, domain.CodePersistenceFailure))

	_, err = l.Increase(context.Background(), 5)
	assert.True(t, domain.HasCode(err, domain.CodePersistenceFailure))
	assert.Equal(t, int64(50), l.Balance())
}

func TestPersistFailure_PassesThroughStale(t *testing.T) {
	rec := &recorder{err: domain.ErrStaleAccount("p")}
	l := newTestLedger(t, 50, withPersister(rec))

	_, err := l.Decrease(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeStaleAccount))
	assert.False(t, domain.HasCode(err, domain.CodePersistenceFailure))
}

func TestPersistStale_RunsOnStale(t *testing.T) {
	rec := &recorder{err: domain.ErrStaleAccount("p")}
	var calls atomic.Int32
	l := newTestLedger(t, 50, withPersister(rec), func(c *Config) {
		c.OnStale = func() { calls.Add(1) }
	})

	_, err := l.Credit(context.Background(), NewCredit(5, "x"))
	assert.True(t, domain.HasCode(err, domain.CodeStaleAccount))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(50), l.Balance())

	rec.err = errors.New("disk full")
	_, err = l.Increase(context.Background(), 1)
	assert.True(t, domain.HasCode(err, domain.CodePersistenceFailure))
	assert.Equal(t, int32(1), calls.Load(), "only stale results trigger the hook")
}

func TestGuard(t *testing.T) {
	var stale atomic.Bool
	rec := &recorder{}
	l := newTestLedger(t, 50, withPersister(rec), func(c *Config) {
		c.Guard = func() error {
			if stale.Load() {
				return domain.ErrStaleAccount(c.PlayerID.String())
			}
			return nil
		}
	})

	_, err := l.Increase(context.Background(), 1)
	require.NoError(t, err)

	stale.Store(true)
	_, err = l.Credit(context.Background(), NewCredit(1, "x"))
	assert.True(t, domain.HasCode(err, domain.CodeStaleAccount))
	assert.Equal(t, int64(51), l.Balance())
	assert.Equal(t, 1, rec.count())
}

// --- Concurrency ---

func TestConcurrentIncrease(t *testing.T) {
	l := newTestLedger(t, 0)
	const n = 500

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Increase(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(n), l.Balance())
}

func TestConcurrentWithdraw_NeverNegative(t *testing.T) {
	l := newTestLedger(t, 100)
	const n = 300

	var ok atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if _, err := l.Withdraw(context.Background(), NewWithdraw(3)); err == nil {
					ok.Add(1)
				}
				return
			}
			_, _ = l.Decrease(context.Background(), 2)
			_, _ = l.Increase(context.Background(), 1)
			assert.GreaterOrEqual(t, l.Balance(), int64(0))
		}(i)
	}
	wg.Wait()
	assert.GreaterOrEqual(t, l.Balance(), int64(0))
	assert.Positive(t, ok.Load())
}

func TestBalance_DoesNotBlockOnPersist(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	slow := PersisterFunc(func(context.Context, domain.BalanceChange) error {
		close(entered)
		<-release
		return nil
	})
	l := newTestLedger(t, 10, withPersister(slow))

	done := make(chan int64)
	go func() {
		bal, _ := l.Increase(context.Background(), 5)
		done <- bal
	}()

	<-entered
	assert.Equal(t, int64(10), l.Balance(), "read returns the committed value while persist is in flight")
	assert.True(t, l.HasEnough(10))
	close(release)
	assert.Equal(t, int64(15), <-done)
	assert.Equal(t, int64(15), l.Balance())
}

// --- Async & callbacks ---

func TestCreditAsync_CallbackExactlyOnce(t *testing.T) {
	l := newTestLedger(t, 0)
	const n = 50

	var calls atomic.Int32
	cb := func(o Outcome) {
		calls.Add(1)
		assert.True(t, o.OK())
	}
	for i := 0; i < n; i++ {
		l.CreditAsync(context.Background(), NewCredit(2, "async").NotifyTo(cb))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
	assert.Equal(t, int32(n), calls.Load())
	assert.Equal(t, int64(2*n), l.Balance())
}

func TestWithdrawAsync_ReportsFailure(t *testing.T) {
	l := newTestLedger(t, 1)
	cb, ch := Chan()

	l.WithdrawAsync(context.Background(), NewWithdraw(5).NotifyTo(cb))
	select {
	case o := <-ch:
		assert.True(t, domain.HasCode(o.Err, domain.CodeInsufficientFunds))
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
	}
	assert.Equal(t, int64(1), l.Balance())
}

func TestCallback_RunsOutsideLock(t *testing.T) {
	l := newTestLedger(t, 0)
	var inner int64
	cb := func(Outcome) {
		// Re-entering the ledger would deadlock if the lock were still held.
		inner, _ = l.Increase(context.Background(), 1)
	}

	_, err := l.Credit(context.Background(), NewCredit(1, "x").NotifyTo(cb))
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner)
}

func TestWait_ContextDone(t *testing.T) {
	release := make(chan struct{})
	blocked := PersisterFunc(func(context.Context, domain.BalanceChange) error {
		<-release
		return nil
	})
	l := newTestLedger(t, 0, withPersister(blocked))
	l.CreditAsync(context.Background(), NewCredit(1, "x"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, l.Wait(context.Background()))
}

func TestSeal_RefusesAsyncStarts(t *testing.T) {
	l := newTestLedger(t, 7)
	l.Seal()

	var calls atomic.Int32
	var got Outcome
	cb := func(o Outcome) {
		calls.Add(1)
		got = o
	}
	err := l.CreditAsync(context.Background(), NewCredit(1, "x").NotifyTo(cb))
	assert.True(t, domain.HasCode(err, domain.CodeStaleAccount))
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, domain.HasCode(got.Err, domain.CodeStaleAccount))
	assert.Equal(t, int64(7), got.Receipt.NewBalance)

	err = l.WithdrawAsync(context.Background(), NewWithdraw(1).NotifyTo(cb))
	assert.True(t, domain.HasCode(err, domain.CodeStaleAccount))
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, int64(7), l.Balance())
}

func TestSeal_RunningAsyncFinishes(t *testing.T) {
	release := make(chan struct{})
	blocked := PersisterFunc(func(context.Context, domain.BalanceChange) error {
		<-release
		return nil
	})
	l := newTestLedger(t, 0, withPersister(blocked))
	require.NoError(t, l.CreditAsync(context.Background(), NewCredit(3, "x")))
	l.Seal()
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
	assert.Equal(t, int64(3), l.Balance())
}

func TestNotify(t *testing.T) {
	assert.False(t, NoNotify().Requested())
	assert.False(t, NotifyTo(nil).Requested())
	assert.False(t, Notify{}.Requested())
	assert.True(t, NotifyTo(func(Outcome) {}).Requested())
}
