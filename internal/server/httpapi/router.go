package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/credkeeper/credkeeper/internal/logging"
	"github.com/credkeeper/credkeeper/internal/server/auth"
	"github.com/credkeeper/credkeeper/internal/server/tokens"
)

// NewRouter assembles the public REST surface.
func NewRouter(svc *auth.Service, authority *tokens.Authority, logger logging.Logger) http.Handler {
	h := NewHandler(svc, authority, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAccessToken)
		r.Get("/me", h.Me)
	})

	return r
}
