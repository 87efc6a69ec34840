package multiplier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Boost is a time-boxed multiplier, e.g. a double coins weekend.
// An empty Reason matches every credit of the currency.
type Boost struct {
	ID       uuid.UUID       `json:"id"`
	Currency domain.Currency `json:"currency"`
	Reason   string          `json:"reason,omitempty"`
	Factor   decimal.Decimal `json:"factor"`
	StartsAt time.Time       `json:"starts_at"`
	EndsAt   time.Time       `json:"ends_at"`
}

// ActiveAt reports whether the boost window contains t.
func (b Boost) ActiveAt(t time.Time) bool {
	return !t.Before(b.StartsAt) && t.Before(b.EndsAt)
}

// Matches reports whether the boost applies to a credit.
func (b Boost) Matches(currency domain.Currency, reason string) bool {
	return b.Currency == currency && (b.Reason == "" || b.Reason == reason)
}

// BoostSource lists boosts active at a point in time.
type BoostSource interface {
	ListActive(ctx context.Context, at time.Time) ([]Boost, error)
}

// Boosts is a Policy over a BoostSource with a TTL cache.
//
// One refill runs at a time. While it runs, callers holding an expired list
// keep using it; only the first lookup ever waits for the source. A failed
// refill is remembered for failureTTL so an unavailable source is not hit by
// every credit.
type Boosts struct {
	source BoostSource
	clock  clock.Clock
	ttl    time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	cached   []Boost
	loadedAt time.Time
	loaded   bool
	lastErr  error
	failedAt time.Time
}

const (
	failureTTL    = time.Second
	refillTimeout = 5 * time.Second
)

// NewBoosts creates a boost policy that re-reads the source at most once per ttl.
func NewBoosts(source BoostSource, clk clock.Clock, ttl time.Duration) *Boosts {
	if clk == nil {
		clk = clock.New()
	}
	return &Boosts{source: source, clock: clk, ttl: ttl}
}

// MultiplierFor multiplies every active matching boost together.
func (b *Boosts) MultiplierFor(ctx context.Context, currency domain.Currency, reason string) (decimal.Decimal, error) {
	now := b.clock.Now()
	boosts, err := b.active(ctx, now)
	if err != nil {
		return decimal.Zero, err
	}

	result := decimal.NewFromInt(1)
	for _, boost := range boosts {
		if boost.ActiveAt(now) && boost.Matches(currency, reason) {
			result = result.Mul(boost.Factor)
		}
	}
	return result, nil
}

// Warm loads the boost list so that no credit waits for the first read.
func (b *Boosts) Warm(ctx context.Context) error {
	_, err := b.refill(ctx, b.clock.Now())
	return err
}

func (b *Boosts) active(ctx context.Context, now time.Time) ([]Boost, error) {
	b.mu.RLock()
	cached, loaded := b.cached, b.loaded
	fresh := loaded && now.Sub(b.loadedAt) < b.ttl
	failing := b.lastErr != nil && now.Sub(b.failedAt) < failureTTL
	lastErr := b.lastErr
	b.mu.RUnlock()

	switch {
	case fresh:
		return cached, nil
	case failing && loaded:
		return cached, nil
	case failing:
		return nil, lastErr
	}

	refill := b.group.DoChan("boosts", func() (interface{}, error) {
		// The refill outlives the caller that started it.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refillTimeout)
		defer cancel()
		return b.refill(rctx, now)
	})
	if loaded {
		return cached, nil
	}
	select {
	case res := <-refill:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Boost), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Boosts) refill(ctx context.Context, now time.Time) ([]Boost, error) {
	boosts, err := b.source.ListActive(ctx, now)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.lastErr = fmt.Errorf("list active boosts: %w", err)
		b.failedAt = now
		return nil, b.lastErr
	}
	b.cached = boosts
	b.loadedAt = now
	b.loaded = true
	b.lastErr = nil
	return boosts, nil
}
