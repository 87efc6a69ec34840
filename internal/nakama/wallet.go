package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/api"
)

// WalletAPI is the part of runtime.NakamaModule the wallet adapter uses.
type WalletAPI interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
	WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (updated map[string]int64, previous map[string]int64, err error)
}

// Wallet loads players from Nakama accounts and persists balance changes
// into the Nakama wallet, one key per currency.
type Wallet struct {
	nk     WalletAPI
	logger *slog.Logger
}

// NewWallet creates a Nakama wallet adapter.
func NewWallet(nk WalletAPI, logger *slog.Logger) *Wallet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wallet{nk: nk, logger: logger}
}

// LoadPlayer maps a Nakama account: the username is the effective name and a
// display name that differs from it is the nickname.
func (w *Wallet) LoadPlayer(ctx context.Context, id uuid.UUID) (domain.PlayerData, error) {
	account, err := w.nk.AccountGetId(ctx, id.String())
	if err != nil {
		return domain.PlayerData{}, fmt.Errorf("get account: %w", err)
	}
	if account == nil || account.GetUser() == nil {
		return domain.PlayerData{}, domain.ErrNotFound("player", id.String())
	}

	wallet := map[string]int64{}
	if account.GetWallet() != "" {
		if err := json.Unmarshal([]byte(account.GetWallet()), &wallet); err != nil {
			return domain.PlayerData{}, fmt.Errorf("unmarshal wallet: %w", err)
		}
	}

	user := account.GetUser()
	data := domain.PlayerData{
		Identity: domain.Identity{
			PlayerID:      id,
			EffectiveName: user.GetUsername(),
		},
		Coins: wallet[string(domain.Coins)],
		Stars: wallet[string(domain.Stars)],
	}
	if dn := user.GetDisplayName(); dn != "" && dn != user.GetUsername() {
		data.CustomName = dn
	}
	return data, nil
}

// Persist applies the change as a wallet delta. When the wallet did not hold
// change.Previous the delta is reversed and STALE_ACCOUNT returned. If the
// reversal fails too, the result is still STALE_ACCOUNT, wrapping that error.
func (w *Wallet) Persist(ctx context.Context, change domain.BalanceChange) error {
	key := string(change.Currency)
	delta := change.Delta()
	userID := change.PlayerID.String()

	metadata := map[string]interface{}{
		"kind":       string(change.Kind),
		"reason":     change.Reason,
		"requested":  change.Requested,
		"multiplier": change.Multiplier.String(),
	}
	_, previous, err := w.nk.WalletUpdate(ctx, userID, map[string]int64{key: delta}, metadata, true)
	if err != nil {
		return fmt.Errorf("wallet update: %w", err)
	}
	if previous[key] == change.Previous {
		return nil
	}

	w.logger.Warn("nakama wallet moved underneath account",
		"player_id", userID,
		"currency", key,
		"expected", change.Previous,
		"actual", previous[key],
	)
	stale := domain.ErrStaleAccount(userID)
	compensation := map[string]interface{}{"kind": "compensation", "reverts": string(change.Kind)}
	if _, _, err := w.nk.WalletUpdate(ctx, userID, map[string]int64{key: -delta}, compensation, true); err != nil {
		// The delta stays in the wallet. The account must reload rather than retry.
		w.logger.Error("compensate wallet update",
			"player_id", userID,
			"currency", key,
			"delta", delta,
			"error", err,
		)
		stale.Cause = fmt.Errorf("compensate wallet update: %w", err)
	}
	return stale
}
