package app

import (
	"log/slog"

	"github.com/attaboy/playerdata/internal/auth"
	"github.com/attaboy/playerdata/internal/handler"
	"github.com/attaboy/playerdata/internal/projection"
	"github.com/go-chi/chi/v5"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Sessions    handler.Sessions
	Identities  handler.IdentityStore
	Projections projection.Store
	JWTMgr      *auth.JWTManager
	Logger      *slog.Logger
	// Health lists the backing services GET /health checks, by name.
	Health      map[string]handler.Pinger
	CORSOrigins string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}

	players := handler.NewPlayerHandler(deps.Sessions, deps.Identities, deps.Projections, logger)
	projections := handler.NewProjectionHandler(deps.Projections)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(origins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(deps.Health))

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(deps.JWTMgr))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRead())

			r.Get("/players/{id}", players.GetPlayer)
			r.Get("/players/{id}/{currency}", players.GetBalance)
			r.Get("/players/{id}/{currency}/has-enough", players.HasEnough)
			r.Get("/projections/{id}/{currency}", projections.GetBalance)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireWrite())

			r.Put("/players/{id}", players.PutIdentity)
			r.Delete("/players/{id}", players.Unload)
			r.Post("/players/{id}/refresh", players.Refresh)
			r.Post("/players/{id}/{currency}/credit", players.Credit)
			r.Post("/players/{id}/{currency}/withdraw", players.Withdraw)
			r.Post("/players/{id}/{currency}/increase", players.Increase)
			r.Post("/players/{id}/{currency}/decrease", players.Decrease)
		})
	})

	return r
}
