// Package server wires the HTTP transport around the RAG engine.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"documind/internal/api/middleware"
)

// NewRouter assembles the middleware chain and routes.
func NewRouter(h *Handler, maxBodyBytes int64) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/sessions", h.ListSessions)
	r.Post("/upload", h.Upload)
	r.Post("/chat", h.Chat)
	r.Delete("/session/{id}", h.DeleteSession)

	return r
}
