package multiplier

import (
	"context"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/shopspring/decimal"
)

// Policy resolves the factor applied to a credit of the given currency and reason.
type Policy interface {
	MultiplierFor(ctx context.Context, currency domain.Currency, reason string) (decimal.Decimal, error)
}

// PolicyFunc adapts a function to a Policy.
type PolicyFunc func(ctx context.Context, currency domain.Currency, reason string) (decimal.Decimal, error)

func (f PolicyFunc) MultiplierFor(ctx context.Context, currency domain.Currency, reason string) (decimal.Decimal, error) {
	return f(ctx, currency, reason)
}

// Unit always answers 1. It is used when nothing is configured.
var Unit Policy = Fixed(decimal.NewFromInt(1))

// Fixed answers m for every currency and reason.
func Fixed(m decimal.Decimal) Policy {
	return PolicyFunc(func(context.Context, domain.Currency, string) (decimal.Decimal, error) {
		return m, nil
	})
}

// Product multiplies the factors of every policy together. Nil entries are skipped.
func Product(policies ...Policy) Policy {
	return PolicyFunc(func(ctx context.Context, currency domain.Currency, reason string) (decimal.Decimal, error) {
		result := decimal.NewFromInt(1)
		for _, p := range policies {
			if p == nil {
				continue
			}
			m, err := p.MultiplierFor(ctx, currency, reason)
			if err != nil {
				return decimal.Zero, err
			}
			result = result.Mul(m)
		}
		return result, nil
	})
}
