package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/petprogress-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса прогресса питомцев.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/api/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(custommiddleware.RateLimit(h.limiter))

			r.Post("/pets", h.RegisterPet)
			r.Get("/pets/{petID}/audit", h.GetAudit)

			r.Post("/xp/grant", h.Grant)
			r.Get("/xp/status/{petID}", h.Status)
			r.Post("/xp/verify-walk", h.VerifyWalk)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
