//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/attaboy/playerdata/internal/auth"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServerToken mints a game-server token.
func (env *TestEnv) ServerToken() string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmServer, "integration", "")
	if err != nil {
		env.t.Fatalf("generate server token: %v", err)
	}
	return token
}

// AdminToken mints an admin token with the given role.
func (env *TestEnv) AdminToken(role string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, "ops@example.com", role)
	if err != nil {
		env.t.Fatalf("generate admin token: %v", err)
	}
	return token
}

// SeedPlayer inserts a player row with the given balances.
func (env *TestEnv) SeedPlayer(name string, coins, stars int64) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx,
		`INSERT INTO players (id, effective_name, coins, stars) VALUES ($1, $2, $3, $4)`,
		id, name, coins, stars)
	if err != nil {
		env.t.Fatalf("seed player: %v", err)
	}
	return id
}

// SetStoredBalance writes a balance behind the service's back, as another writer would.
func (env *TestEnv) SetStoredBalance(id uuid.UUID, c domain.Currency, value int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	column := "coins"
	if c == domain.Stars {
		column = "stars"
	}
	if _, err := env.Pool.Exec(ctx, `UPDATE players SET `+column+` = $2 WHERE id = $1`, id, value); err != nil {
		env.t.Fatalf("set stored balance: %v", err)
	}
}

// InsertBoost inserts a boost active from one hour ago for the given duration.
func (env *TestEnv) InsertBoost(c domain.Currency, reason string, factor decimal.Decimal, d time.Duration) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var reasonArg any
	if reason != "" {
		reasonArg = reason
	}
	start := time.Now().Add(-time.Hour)
	_, err := env.Pool.Exec(ctx,
		`INSERT INTO currency_boosts (currency, reason, factor, starts_at, ends_at) VALUES ($1, $2, $3::numeric, $4, $5)`,
		string(c), reasonArg, factor.String(), start, start.Add(d))
	if err != nil {
		env.t.Fatalf("insert boost: %v", err)
	}
}

// AuthGET sends an authenticated GET.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	return env.do(http.MethodGet, path, nil, token)
}

// AuthPOST sends an authenticated POST with a JSON body.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	return env.do(http.MethodPost, path, body, token)
}

// AuthPUT sends an authenticated PUT with a JSON body.
func (env *TestEnv) AuthPUT(path string, body interface{}, token string) *http.Response {
	return env.do(http.MethodPut, path, body, token)
}

// AuthDELETE sends an authenticated DELETE.
func (env *TestEnv) AuthDELETE(path, token string) *http.Response {
	return env.do(http.MethodDelete, path, nil, token)
}

func (env *TestEnv) do(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
