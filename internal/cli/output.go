package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
		return
	}
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case Balance:
		fmt.Fprintf(o.w, "%s %s: %d\n", v.PlayerID, v.Currency, v.Balance)
	case HasEnough:
		fmt.Fprintf(o.w, "%s %s: %d (need %d, has enough: %t)\n", v.PlayerID, v.Currency, v.Balance.Balance, v.Amount, v.HasEnough)
	case Receipt:
		fmt.Fprintf(o.w, "%s %s: applied %d (x%s), balance %d\n", v.PlayerID, v.Currency, v.AmountApplied, v.Multiplier, v.NewBalance)
	case Unloaded:
		if v.Unloaded {
			fmt.Fprintln(o.w, "Unloaded")
		} else {
			fmt.Fprintln(o.w, "Not loaded")
		}
	case Token:
		fmt.Fprintln(o.w, v.Token)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case Event:
		fmt.Fprintf(o.w, "%s %s %s %s\n", v.OccurredAt.Format(time.RFC3339), v.EventType, v.AggregateID, string(v.Payload))
	default:
		o.printJSON(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.PlayerID)
	fmt.Fprintf(o.w, "Effective name: %s\n", p.EffectiveName)
	if p.HasNickname {
		fmt.Fprintf(o.w, "Nickname: %s\n", p.CustomName)
	}
	fmt.Fprintf(o.w, "Coins: %d\n", p.Coins)
	fmt.Fprintf(o.w, "Stars: %d\n", p.Stars)
	if !p.LastRefresh.IsZero() {
		fmt.Fprintf(o.w, "Last refresh: %s\n", p.LastRefresh.Format(time.RFC3339))
	}
}

// Player response type (matches API)
type Player struct {
	PlayerID      string    `json:"player_id"`
	EffectiveName string    `json:"effective_name"`
	CustomName    string    `json:"custom_name,omitempty"`
	DisplayName   string    `json:"display_name"`
	HasNickname   bool      `json:"has_nickname"`
	Coins         int64     `json:"coins"`
	Stars         int64     `json:"stars"`
	LastRefresh   time.Time `json:"last_refresh"`
}

// Balance response type
type Balance struct {
	PlayerID string `json:"player_id"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

// HasEnough response type
type HasEnough struct {
	Balance
	Amount    int64 `json:"amount"`
	HasEnough bool  `json:"has_enough"`
}

// Receipt response type for credit and withdraw
type Receipt struct {
	PlayerID      string `json:"player_id"`
	Currency      string `json:"currency"`
	NewBalance    int64  `json:"new_balance"`
	AmountApplied int64  `json:"amount_applied"`
	Multiplier    string `json:"multiplier"`
}

// Unloaded response type
type Unloaded struct {
	Unloaded bool `json:"unloaded"`
}

// Token is a minted JWT
type Token struct {
	Token string `json:"token"`
}

// Event is a relayed outbox event as read from Kafka
type Event struct {
	EventID       string          `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
