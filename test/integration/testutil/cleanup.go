//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates all tables.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, table := range []string{"event_outbox", "currency_boosts", "players"} {
		_, _ = env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
	}
}
