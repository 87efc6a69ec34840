package handler

import (
	"net/http"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/projection"
)

// ProjectionHandler serves cached balances without touching the account registry.
type ProjectionHandler struct {
	store projection.Store
}

// NewProjectionHandler creates a new ProjectionHandler. A nil store answers every lookup with 404.
func NewProjectionHandler(store projection.Store) *ProjectionHandler {
	return &ProjectionHandler{store: store}
}

// GetBalance handles GET /projections/{id}/{currency}.
func (h *ProjectionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	c, err := currencyParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	if h.store == nil {
		RespondError(w, domain.ErrNotFound("projection", id.String()))
		return
	}

	p, err := projection.GetBalance(r.Context(), h.store, id.String(), c)
	if err != nil {
		if domain.HasCode(err, domain.CodeNotFound) {
			RespondError(w, err)
			return
		}
		RespondError(w, domain.ErrInternal("read projection", err))
		return
	}
	RespondJSON(w, http.StatusOK, p)
}
