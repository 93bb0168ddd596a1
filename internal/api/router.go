// Package api assembles the HTTP surface: routing, middleware and the
// JSON handlers for uploads, questions and sessions.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/rafaelmp/invoicedesk/internal/api/handlers"
	"github.com/rafaelmp/invoicedesk/internal/api/middleware"
)

// New builds the router with all endpoints mounted.
func New(
	invoices *handlers.InvoicesHandler,
	transactions *handlers.TransactionsHandler,
	ask *handlers.AskHandler,
	sessions *handlers.SessionsHandler,
	log zerolog.Logger,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         3600,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Post("/invoices", invoices.Upload)
		r.Get("/transactions", transactions.List)

		r.Route("/ask", func(r chi.Router) {
			r.Post("/tools", ask.AskTools)
			r.Post("/context", ask.AskContext)
			r.Post("/semantic", ask.AskSemantic)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.Count)
			r.Get("/{id}", sessions.Get)
			r.Delete("/{id}", sessions.Delete)
		})
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return router
}
