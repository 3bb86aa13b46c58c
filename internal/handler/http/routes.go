package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// credential endpoints are rate limited per client address
	router.Group(func(r chi.Router) {
		r.Use(h.withRateLimit)
		r.Post("/api/account/register", h.register)
		r.Post("/api/account/sign-in", h.signIn)
		r.Put("/api/account/{accountID}/username", h.changeUsername)
		r.Put("/api/account/{accountID}/credential", h.changeCredential)
		r.Get("/api/account/{accountID}/metadata", h.getMetadata)
	})

	router.Put("/api/sync/{accountID}", h.sync)

	return router
}
