package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/meera/framl/internal/metrics"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	Metrics          *metrics.Registry
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the backend API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials))
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{
			"status": "ok",
		}

		if deps.Health != nil {
			if err := deps.Health.Probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
		}

		respondJSON(w, status, payload)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	if deps.API != nil {
		api := deps.API

		r.Route("/users", func(r chi.Router) {
			r.Get("/", api.listUsers)
			r.Post("/", api.createOrUpdateUser)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", api.listTransactions)
			r.Post("/", api.createOrUpdateTransaction)
		})

		r.Route("/relationships", func(r chi.Router) {
			r.Get("/user/{id}", api.userConnections)
			r.Get("/transaction/{id}", api.transactionConnections)
		})

		r.Route("/graph", func(r chi.Router) {
			r.Get("/", api.buildGraph)
			r.Get("/user/{id}", api.buildUserGraph)
			r.Get("/transaction/{id}", api.buildTransactionGraph)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/stats", api.stats)
			r.Get("/shortest-path", api.shortestPath)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/transactions", api.exportTransactions)
			r.Get("/transactions/csv", api.exportTransactionsCSV)
			r.Get("/users/csv", api.exportUsersCSV)
		})
	}

	return r
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}
