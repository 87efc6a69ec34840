package ledger

import "github.com/attaboy/playerdata/internal/domain"

// CreditRequest asks for a credit. The zero value of every optional field is
// the default: reason "unspecified", multiplier applied, no notification.
type CreditRequest struct {
	Amount         int64
	Reason         string
	SkipMultiplier bool
	Notify         Notify
}

// NewCredit builds a credit with the multiplier applied and no notification.
func NewCredit(amount int64, reason string) CreditRequest {
	return CreditRequest{Amount: amount, Reason: reason}
}

// WithoutMultiplier returns a copy that credits the raw amount.
func (r CreditRequest) WithoutMultiplier() CreditRequest {
	r.SkipMultiplier = true
	return r
}

// NotifyTo returns a copy that reports its outcome to cb.
func (r CreditRequest) NotifyTo(cb Callback) CreditRequest {
	r.Notify = NotifyTo(cb)
	return r
}

func (r CreditRequest) reason() string {
	if r.Reason == "" {
		return domain.DefaultCreditReason
	}
	return r.Reason
}

// WithdrawRequest asks for a withdrawal. It is never multiplied.
type WithdrawRequest struct {
	Amount int64
	Reason string
	Notify Notify
}

// NewWithdraw builds a withdrawal with no notification.
func NewWithdraw(amount int64) WithdrawRequest {
	return WithdrawRequest{Amount: amount}
}

// NotifyTo returns a copy that reports its outcome to cb.
func (r WithdrawRequest) NotifyTo(cb Callback) WithdrawRequest {
	r.Notify = NotifyTo(cb)
	return r
}
