package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/ledger"
	"github.com/attaboy/playerdata/internal/session"
	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	RpcBalance  = "playerdata_balance"
	RpcCredit   = "playerdata_credit"
	RpcWithdraw = "playerdata_withdraw"
)

// gRPC status codes used by runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnavailable        = 14
	codeUnauthenticated    = 16
)

// Module serves player balances to Nakama clients and game servers.
type Module struct {
	registry *session.Registry
	logger   *slog.Logger
}

// NewModule creates the RPC module over a registry.
func NewModule(registry *session.Registry, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{registry: registry, logger: logger}
}

// Register registers RPCs and the session end hook.
func (m *Module) Register(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcBalance, m.RpcBalance); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcCredit, m.RpcCredit); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcWithdraw, m.RpcWithdraw); err != nil {
		return err
	}
	return initializer.RegisterEventSessionEnd(m.onSessionEnd)
}

// BalanceResponse is returned by the balance RPC.
type BalanceResponse struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Coins       int64  `json:"coins"`
	Stars       int64  `json:"stars"`
}

// RpcBalance returns the calling user's balances.
func (m *Module) RpcBalance(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("user session required", codeUnauthenticated)
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", runtime.NewError("invalid user id", codeInvalidArgument)
	}

	a, err := m.registry.Get(ctx, id)
	if err != nil {
		logger.Error("RpcBalance [User:%s]: load failed: %v", userID, err)
		return "", toRuntimeError(err)
	}
	coins, stars := a.Snapshot()
	return marshal(BalanceResponse{PlayerID: userID, DisplayName: a.DisplayName(), Coins: coins, Stars: stars})
}

// MutationRequest is the payload of the credit and withdraw RPCs.
type MutationRequest struct {
	PlayerID        string `json:"player_id"`
	Currency        string `json:"currency"`
	Amount          int64  `json:"amount"`
	Reason          string `json:"reason"`
	ApplyMultiplier *bool  `json:"apply_multiplier"`
}

// RpcCredit credits a player. Only server-to-server calls are accepted.
func (m *Module) RpcCredit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, id, currency, err := parseMutation(ctx, payload)
	if err != nil {
		return "", err
	}
	a, err := m.registry.Get(ctx, id)
	if err != nil {
		return "", toRuntimeError(err)
	}

	credit := ledger.NewCredit(req.Amount, req.Reason)
	if req.ApplyMultiplier != nil && !*req.ApplyMultiplier {
		credit = credit.WithoutMultiplier()
	}
	receipt, err := a.Credit(ctx, currency, credit)
	if err != nil {
		logger.Warn("RpcCredit [Player:%s]: %v", req.PlayerID, err)
		return "", toRuntimeError(err)
	}
	return marshal(receipt)
}

// RpcWithdraw withdraws from a player. Only server-to-server calls are accepted.
func (m *Module) RpcWithdraw(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, id, currency, err := parseMutation(ctx, payload)
	if err != nil {
		return "", err
	}
	a, err := m.registry.Get(ctx, id)
	if err != nil {
		return "", toRuntimeError(err)
	}

	receipt, err := a.Withdraw(ctx, currency, ledger.WithdrawRequest{Amount: req.Amount, Reason: req.Reason})
	if err != nil {
		logger.Warn("RpcWithdraw [Player:%s]: %v", req.PlayerID, err)
		return "", toRuntimeError(err)
	}
	return marshal(receipt)
}

// onSessionEnd unloads the account when the player disconnects.
func (m *Module) onSessionEnd(ctx context.Context, logger runtime.Logger, evt *api.Event) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	id, err := uuid.Parse(userID)
	if err != nil {
		return
	}
	if _, err := m.registry.Unload(ctx, id); err != nil {
		logger.Warn("session end [User:%s]: %v", userID, err)
	}
}

func parseMutation(ctx context.Context, payload string) (MutationRequest, uuid.UUID, domain.Currency, error) {
	var req MutationRequest
	if userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string); userID != "" {
		return req, uuid.Nil, "", runtime.NewError("server-to-server only", codePermissionDenied)
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return req, uuid.Nil, "", runtime.NewError("invalid payload", codeInvalidArgument)
	}
	id, err := uuid.Parse(req.PlayerID)
	if err != nil {
		return req, uuid.Nil, "", runtime.NewError("invalid player_id", codeInvalidArgument)
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return req, uuid.Nil, "", runtime.NewError(err.Error(), codeInvalidArgument)
	}
	return req, id, currency, nil
}

func toRuntimeError(err error) error {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		return runtime.NewError("internal error", codeInternal)
	}
	switch appErr.Code {
	case domain.CodeInvalidArgument:
		return runtime.NewError(appErr.Message, codeInvalidArgument)
	case domain.CodeNotFound:
		return runtime.NewError(appErr.Message, codeNotFound)
	case domain.CodeInsufficientFunds, domain.CodeStaleAccount:
		return runtime.NewError(appErr.Message, codeFailedPrecondition)
	case domain.CodePersistenceFailure:
		return runtime.NewError(appErr.Message, codeUnavailable)
	default:
		return runtime.NewError("internal error", codeInternal)
	}
}

func marshal(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError(fmt.Sprintf("marshal response: %v", err), codeInternal)
	}
	return string(data), nil
}
