package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCreditReason is recorded when a credit is requested without a reason.
const DefaultCreditReason = "unspecified"

// MutationKind enumerates the balance mutations a ledger performs.
type MutationKind string

const (
	KindCredit   MutationKind = "credit"
	KindWithdraw MutationKind = "withdraw"
	KindIncrease MutationKind = "increase"
	KindDecrease MutationKind = "decrease"
)

// BalanceChange describes one mutation of a single currency balance.
// It is handed to the persistence sink before the in-memory balance moves.
type BalanceChange struct {
	PlayerID   uuid.UUID       `json:"player_id"`
	Currency   Currency        `json:"currency"`
	Kind       MutationKind    `json:"kind"`
	Reason     string          `json:"reason,omitempty"`
	Requested  int64           `json:"requested"`
	Applied    int64           `json:"applied"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Previous   int64           `json:"previous"`
	NewBalance int64           `json:"new_balance"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Delta returns the signed difference the change applies.
func (c BalanceChange) Delta() int64 {
	return c.NewBalance - c.Previous
}

// ApplyMultiplier scales amount by m, rounding toward zero.
func ApplyMultiplier(amount int64, m decimal.Decimal) (int64, error) {
	if m.IsNegative() {
		return 0, ErrInvalidArgument(fmt.Sprintf("multiplier must not be negative, got %s", m))
	}
	scaled := decimal.NewFromInt(amount).Mul(m).Floor()
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, ErrInvalidArgument(fmt.Sprintf("credit of %d x %s overflows", amount, m))
	}
	return bi.Int64(), nil
}

// AddBalance adds delta to balance, refusing to overflow.
func AddBalance(balance, delta int64) (int64, error) {
	if delta > 0 && balance > math.MaxInt64-delta {
		return 0, ErrInvalidArgument(fmt.Sprintf("balance %d + %d overflows", balance, delta))
	}
	return balance + delta, nil
}
