package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter builds the chi router with the standard middleware stack and all
// API routes mounted.
func NewRouter(h *Handler, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(RequestLogger(logger))

	RegisterHealthRoutes(r)
	h.RegisterRoutes(r)

	return r
}
