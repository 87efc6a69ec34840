package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"zero", 0, false},
		{"positive", 100, false},
		{"max", math.MaxInt64, false},
		{"negative", -1, true},
		{"min", math.MinInt64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, CodeInvalidArgument))
				assert.Contains(t, err.Error(), "must not be negative")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidatePlayerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"simple", "Notch", false, ""},
		{"limit", strings.Repeat("a", 32), false, ""},
		{"multibyte at limit", strings.Repeat("é", 32), false, ""},
		{"empty", "", true, "player name is required"},
		{"too long", strings.Repeat("a", 33), true, "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlayerName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// --- Currency Tests ---

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input   string
		want    Currency
		wantErr bool
	}{
		{"coins", Coins, false},
		{"STARS", Stars, false},
		{" Coins ", Coins, false},
		{"gems", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, CodeInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrencies(t *testing.T) {
	assert.Equal(t, []Currency{Coins, Stars}, Currencies())
	assert.True(t, Coins.Valid())
	assert.False(t, Currency("gems").Valid())
}

// --- Identity Tests ---

func TestIdentity_DisplayName(t *testing.T) {
	id := Identity{EffectiveName: "Steve"}
	assert.False(t, id.HasNickname())
	assert.Equal(t, "Steve", id.DisplayName())

	id.CustomName = " "
	assert.True(t, id.HasNickname(), "any non-empty custom name is a nickname")
	assert.Equal(t, " ", id.DisplayName())

	id.CustomName = "Captain"
	assert.True(t, id.HasNickname())
	assert.Equal(t, "Captain", id.DisplayName())
}

func TestPlayerData_Balance(t *testing.T) {
	p := PlayerData{Coins: 10, Stars: 3}
	assert.Equal(t, int64(10), p.Balance(Coins))
	assert.Equal(t, int64(3), p.Balance(Stars))
}

// --- Balance Tests ---

func TestApplyMultiplier(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		m       string
		want    int64
		wantErr bool
	}{
		{"unit", 100, "1", 100, false},
		{"double", 100, "2", 200, false},
		{"fraction floors", 7, "1.5", 10, false},
		{"zero multiplier", 100, "0", 0, false},
		{"zero amount", 0, "3", 0, false},
		{"negative multiplier", 100, "-1", 0, true},
		{"overflow", math.MaxInt64, "2", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyMultiplier(tt.amount, decimal.RequireFromString(tt.m))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, CodeInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddBalance(t *testing.T) {
	got, err := AddBalance(5, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), got)

	got, err = AddBalance(15, -15)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = AddBalance(math.MaxInt64, 1)
	require.Error(t, err)
}

func TestBalanceChange_Delta(t *testing.T) {
	c := BalanceChange{Previous: 50, NewBalance: 20}
	assert.Equal(t, int64(-30), c.Delta())
}

// --- Error Tests ---

func TestAppError_Chain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("persist coins: %w", ErrPersistenceFailure(cause))

	assert.True(t, HasCode(err, CodePersistenceFailure))
	assert.False(t, HasCode(err, CodeStaleAccount))
	assert.ErrorIs(t, err, cause)

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 503, appErr.Status)
	assert.Contains(t, appErr.Error(), "connection refused")

	_, ok = AsAppError(cause)
	assert.False(t, ok)
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"invalid", ErrInvalidArgument("x"), CodeInvalidArgument, 400},
		{"funds", ErrInsufficientFunds(Coins, 5, 10), CodeInsufficientFunds, 409},
		{"persist", ErrPersistenceFailure(nil), CodePersistenceFailure, 503},
		{"stale", ErrStaleAccount("p1"), CodeStaleAccount, 409},
		{"not found", ErrNotFound("player", "p1"), CodeNotFound, 404},
		{"unauthorized", ErrUnauthorized("no"), CodeUnauthorized, 401},
		{"forbidden", ErrForbidden("no"), CodeForbidden, 403},
		{"internal", ErrInternal("boom", nil), CodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
		})
	}

	assert.Equal(t, "INSUFFICIENT_FUNDS: insufficient coins: balance 5, requested 10",
		ErrInsufficientFunds(Coins, 5, 10).Error())
}

// --- Event Tests ---

func TestNewBalanceChangedEvent(t *testing.T) {
	playerID := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	change := BalanceChange{
		PlayerID:   playerID,
		Currency:   Stars,
		Kind:       KindCredit,
		Reason:     "quest",
		Requested:  10,
		Applied:    20,
		Multiplier: decimal.NewFromInt(2),
		Previous:   5,
		NewBalance: 25,
		OccurredAt: at,
	}

	ev := NewBalanceChangedEvent(change)
	assert.Equal(t, AggregatePlayer, ev.AggregateType)
	assert.Equal(t, EventBalanceChanged, ev.EventType)
	assert.Equal(t, playerID.String(), ev.AggregateID)
	assert.Equal(t, playerID.String(), ev.PartitionKey)
	assert.Equal(t, at, ev.OccurredAt)
	assert.Equal(t, "playerdata.player.balance.changed", ev.Topic())
	assert.NotEqual(t, uuid.Nil, ev.EventID)

	var decoded BalanceChange
	require.NoError(t, json.Unmarshal(ev.Payload, &decoded))
	assert.Equal(t, int64(25), decoded.NewBalance)
	assert.True(t, decoded.Multiplier.Equal(decimal.NewFromInt(2)))
}

func TestNewIdentityUpdatedEvent_DefaultsTimestamp(t *testing.T) {
	ev := NewIdentityUpdatedEvent(Identity{PlayerID: uuid.New(), EffectiveName: "Alex"})
	assert.Equal(t, EventIdentityUpdated, ev.EventType)
	assert.False(t, ev.OccurredAt.IsZero())
	assert.JSONEq(t, `{}`, string(ev.Headers))
}
