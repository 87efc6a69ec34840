package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/attaboy/playerdata/internal/account"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/ledger"
	"github.com/attaboy/playerdata/internal/projection"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Sessions is the part of the session registry the player endpoints drive.
type Sessions interface {
	Get(ctx context.Context, id uuid.UUID) (*account.PlayerAccount, error)
	Refresh(ctx context.Context, id uuid.UUID) (*account.PlayerAccount, error)
	Unload(ctx context.Context, id uuid.UUID) (bool, error)
	Peek(id uuid.UUID) (*account.PlayerAccount, bool)
}

// IdentityStore records identity metadata pushed by the identity source.
type IdentityStore interface {
	UpsertIdentity(ctx context.Context, identity domain.Identity) (domain.PlayerData, error)
}

// PlayerHandler handles player identity and balance endpoints.
type PlayerHandler struct {
	sessions    Sessions
	identities  IdentityStore
	projections projection.Store
	logger      *slog.Logger
}

// NewPlayerHandler creates a new PlayerHandler. projections may be nil; when
// set, refresh and unload drop the player's cached balances.
func NewPlayerHandler(sessions Sessions, identities IdentityStore, projections projection.Store, logger *slog.Logger) *PlayerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerHandler{sessions: sessions, identities: identities, projections: projections, logger: logger}
}

func (h *PlayerHandler) invalidateProjection(ctx context.Context, id uuid.UUID) {
	if h.projections == nil {
		return
	}
	if err := projection.InvalidateBalance(ctx, h.projections, id); err != nil {
		h.logger.Warn("invalidate balance projection", "player_id", id.String(), "error", err)
	}
}

// playerResponse is the shape of GET /players/{id}.
type playerResponse struct {
	PlayerID      uuid.UUID `json:"player_id"`
	EffectiveName string    `json:"effective_name"`
	CustomName    string    `json:"custom_name,omitempty"`
	DisplayName   string    `json:"display_name"`
	HasNickname   bool      `json:"has_nickname"`
	Coins         int64     `json:"coins"`
	Stars         int64     `json:"stars"`
	LastRefresh   time.Time `json:"last_refresh"`
}

func newPlayerResponse(a *account.PlayerAccount) playerResponse {
	identity := a.Identity()
	coins, stars := a.Snapshot()
	return playerResponse{
		PlayerID:      identity.PlayerID,
		EffectiveName: identity.EffectiveName,
		CustomName:    identity.CustomName,
		DisplayName:   identity.DisplayName(),
		HasNickname:   identity.HasNickname(),
		Coins:         coins,
		Stars:         stars,
		LastRefresh:   identity.LastRefresh,
	}
}

type balanceResponse struct {
	PlayerID uuid.UUID       `json:"player_id"`
	Currency domain.Currency `json:"currency"`
	Balance  int64           `json:"balance"`
}

type hasEnoughResponse struct {
	balanceResponse
	Amount    int64 `json:"amount"`
	HasEnough bool  `json:"has_enough"`
}

type identityRequest struct {
	EffectiveName string `json:"effective_name"`
	CustomName    string `json:"custom_name"`
}

type creditRequest struct {
	Amount          int64  `json:"amount"`
	Reason          string `json:"reason"`
	ApplyMultiplier *bool  `json:"apply_multiplier"`
}

type withdrawRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type adjustRequest struct {
	By int64 `json:"by"`
}

// PutIdentity handles PUT /players/{id}. A loaded account picks the new names up immediately.
func (h *PlayerHandler) PutIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req identityRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	data, err := h.identities.UpsertIdentity(r.Context(), domain.Identity{
		PlayerID:      id,
		EffectiveName: req.EffectiveName,
		CustomName:    req.CustomName,
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	if a, ok := h.sessions.Peek(id); ok {
		identity := data.Identity
		identity.LastRefresh = a.LastRefresh()
		if err := a.ApplyIdentity(identity); err != nil {
			RespondError(w, err)
			return
		}
		RespondJSON(w, http.StatusOK, newPlayerResponse(a))
		return
	}

	RespondJSON(w, http.StatusOK, playerResponse{
		PlayerID:      data.PlayerID,
		EffectiveName: data.EffectiveName,
		CustomName:    data.CustomName,
		DisplayName:   data.DisplayName(),
		HasNickname:   data.HasNickname(),
		Coins:         data.Coins,
		Stars:         data.Stars,
		LastRefresh:   data.LastRefresh,
	})
}

// GetPlayer handles GET /players/{id}, loading the account on first use.
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	a, err := h.account(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, newPlayerResponse(a))
}

// Refresh handles POST /players/{id}/refresh.
func (h *PlayerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	a, err := h.sessions.Refresh(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.invalidateProjection(r.Context(), id)
	RespondJSON(w, http.StatusOK, newPlayerResponse(a))
}

// Unload handles DELETE /players/{id}, the disconnect path.
func (h *PlayerHandler) Unload(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	unloaded, err := h.sessions.Unload(r.Context(), id)
	if unloaded {
		h.invalidateProjection(r.Context(), id)
	}
	if err != nil {
		RespondError(w, domain.ErrInternal("unload player", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"unloaded": unloaded})
}

// GetBalance handles GET /players/{id}/{currency}.
func (h *PlayerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	a, c, err := h.accountAndCurrency(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	balance, err := a.Balance(c)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, balanceResponse{PlayerID: a.PlayerID(), Currency: c, Balance: balance})
}

// HasEnough handles GET /players/{id}/{currency}/has-enough?amount=N.
func (h *PlayerHandler) HasEnough(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		RespondError(w, domain.ErrInvalidArgument("amount must be an integer"))
		return
	}
	a, c, err := h.accountAndCurrency(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	balance, err := a.Balance(c)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, hasEnoughResponse{
		balanceResponse: balanceResponse{PlayerID: a.PlayerID(), Currency: c, Balance: balance},
		Amount:          amount,
		HasEnough:       balance >= amount,
	})
}

// Credit handles POST /players/{id}/{currency}/credit.
func (h *PlayerHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	a, c, err := h.accountAndCurrency(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	credit := ledger.NewCredit(req.Amount, req.Reason)
	if req.ApplyMultiplier != nil && !*req.ApplyMultiplier {
		credit = credit.WithoutMultiplier()
	}
	receipt, err := a.Credit(r.Context(), c, credit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, receipt)
}

// Withdraw handles POST /players/{id}/{currency}/withdraw.
func (h *PlayerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	a, c, err := h.accountAndCurrency(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	withdraw := ledger.NewWithdraw(req.Amount)
	withdraw.Reason = req.Reason
	receipt, err := a.Withdraw(r.Context(), c, withdraw)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, receipt)
}

// Increase handles POST /players/{id}/{currency}/increase.
func (h *PlayerHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, (*account.PlayerAccount).Increase)
}

// Decrease handles POST /players/{id}/{currency}/decrease.
func (h *PlayerHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, (*account.PlayerAccount).Decrease)
}

type adjustFunc func(a *account.PlayerAccount, ctx context.Context, c domain.Currency, by int64) (int64, error)

func (h *PlayerHandler) adjust(w http.ResponseWriter, r *http.Request, fn adjustFunc) {
	var req adjustRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	a, c, err := h.accountAndCurrency(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	balance, err := fn(a, r.Context(), c, req.By)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, balanceResponse{PlayerID: a.PlayerID(), Currency: c, Balance: balance})
}

func (h *PlayerHandler) account(r *http.Request) (*account.PlayerAccount, error) {
	id, err := playerIDParam(r)
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(r.Context(), id)
}

func (h *PlayerHandler) accountAndCurrency(r *http.Request) (*account.PlayerAccount, domain.Currency, error) {
	c, err := currencyParam(r)
	if err != nil {
		return nil, "", err
	}
	a, err := h.account(r)
	if err != nil {
		return nil, "", err
	}
	return a, c, nil
}

func playerIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidArgument("invalid player id")
	}
	return id, nil
}

func currencyParam(r *http.Request) (domain.Currency, error) {
	return domain.ParseCurrency(chi.URLParam(r, "currency"))
}
