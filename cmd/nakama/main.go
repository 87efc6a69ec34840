// Command nakama builds the playerdata Nakama runtime plugin:
//
//	go build -buildmode=plugin -trimpath -o playerdata.so ./cmd/nakama
package main

import (
	"context"
	"database/sql"

	"github.com/attaboy/playerdata/internal/nakama"
	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule is the symbol Nakama looks up when loading the plugin.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

func main() {}
