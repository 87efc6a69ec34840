//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// AssertBalance queries the players table and asserts the player's balances.
func AssertBalance(t *testing.T, env *TestEnv, playerID uuid.UUID, coins, stars int64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var gotCoins, gotStars int64
	err := env.Pool.QueryRow(ctx,
		"SELECT coins, stars FROM players WHERE id = $1",
		playerID).Scan(&gotCoins, &gotStars)
	if err != nil {
		t.Fatalf("AssertBalance: query: %v", err)
	}
	if gotCoins != coins {
		t.Errorf("coins: expected %d, got %d", coins, gotCoins)
	}
	if gotStars != stars {
		t.Errorf("stars: expected %d, got %d", stars, gotStars)
	}
}

// CountOutboxEvents returns the number of outbox events of one type for a player.
func CountOutboxEvents(t *testing.T, env *TestEnv, playerID uuid.UUID, eventType domain.EventType) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_outbox WHERE "aggregateId" = $1 AND "eventType" = $2`,
		playerID.String(), string(eventType)).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}
