package ledger

import (
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the result of a credit or withdrawal.
type Receipt struct {
	PlayerID      uuid.UUID       `json:"player_id"`
	Currency      domain.Currency `json:"currency"`
	NewBalance    int64           `json:"new_balance"`
	AmountApplied int64           `json:"amount_applied"`
	Multiplier    decimal.Decimal `json:"multiplier"`
}

// Outcome is delivered to a Callback once the mutation has finished.
type Outcome struct {
	Receipt Receipt
	Err     error
}

// OK reports whether the mutation succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Callback receives the outcome of exactly one mutation.
type Callback func(Outcome)

// Notify is an optional Callback. The zero value requests no notification.
type Notify struct {
	cb Callback
}

// NoNotify requests no notification.
func NoNotify() Notify { return Notify{} }

// NotifyTo requests that cb receive the outcome. A nil cb is NoNotify.
func NotifyTo(cb Callback) Notify { return Notify{cb: cb} }

// Requested reports whether a callback is set.
func (n Notify) Requested() bool { return n.cb != nil }

// Deliver hands the outcome to the callback, if one is set.
func (n Notify) Deliver(receipt Receipt, err error) {
	if n.cb != nil {
		n.cb(Outcome{Receipt: receipt, Err: err})
	}
}

// Chan returns a callback that forwards its outcome to the returned channel.
// The channel is buffered, so the callback never blocks.
func Chan() (Callback, <-chan Outcome) {
	ch := make(chan Outcome, 1)
	return func(o Outcome) { ch <- o }, ch
}
