package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the identity metadata of one player as supplied by the identity source.
type Identity struct {
	PlayerID      uuid.UUID `json:"player_id"`
	CustomName    string    `json:"custom_name,omitempty"`
	EffectiveName string    `json:"effective_name"`
	LastRefresh   time.Time `json:"last_refresh"`
}

// HasNickname returns true if a non-empty custom name is set.
func (i Identity) HasNickname() bool {
	return i.CustomName != ""
}

// DisplayName resolves to the nickname when one is set, else the effective name.
func (i Identity) DisplayName() string {
	if i.HasNickname() {
		return i.CustomName
	}
	return i.EffectiveName
}

// PlayerData is everything needed to build an in-memory account.
type PlayerData struct {
	Identity
	Coins int64 `json:"coins"`
	Stars int64 `json:"stars"`
}

// Balance returns the stored balance for one currency.
func (p PlayerData) Balance(c Currency) int64 {
	if c == Stars {
		return p.Stars
	}
	return p.Coins
}
