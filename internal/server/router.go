package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cash-register-client/internal/handlers"
	"cash-register-client/internal/observability"
)

// NewRouter mounts the local state and control surface for one session.
func NewRouter(s *handlers.Session) http.Handler {

	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	r.Get("/state", s.State)
	r.Put("/amounts", s.SetAmounts)
	r.Post("/calculate", s.Calculate)
	r.Post("/clear", s.Clear)
	r.Post("/upload", s.Upload)
	r.Post("/results/clear", s.ClearResults)

	r.Get("/config", s.GetConfig)
	r.Put("/config", s.EditConfig)

	return r
}
