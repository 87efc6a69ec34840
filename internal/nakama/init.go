package nakama

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/attaboy/playerdata/internal/account"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/attaboy/playerdata/internal/session"
	"github.com/heroiclabs/nakama-common/runtime"
)

// envMultiplierTable names the runtime env entry holding a multiplier table path.
const envMultiplierTable = "PLAYERDATA_MULTIPLIER_TABLE"

// InitModule wires the wallet-backed registry and RPCs into the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	slogger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("module", "playerdata")

	policy := multiplier.Unit
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok && env[envMultiplierTable] != "" {
		table, err := multiplier.LoadTable(env[envMultiplierTable])
		if err != nil {
			logger.Error("playerdata: %v", err)
			return err
		}
		policy = table
	}

	wallet := NewWallet(nk, slogger)
	registry := session.NewRegistry(wallet, account.Options{
		Persister: wallet,
		Policy:    policy,
		Logger:    slogger,
	})
	if err := NewModule(registry, slogger).Register(initializer); err != nil {
		return err
	}

	logger.Info("playerdata Go module loaded.")
	return nil
}
