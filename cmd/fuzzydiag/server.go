package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/respira-diag/fuzzydx/internal/diagnosis"
	"github.com/respira-diag/fuzzydx/internal/knowledge"
	"github.com/respira-diag/fuzzydx/internal/shared/metrics"
	secmiddleware "github.com/respira-diag/fuzzydx/internal/shared/middleware"
)

const maxBodyBytes = 1 << 20

func newRouter(app *App) chi.Router {
	cfg := app.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secmiddleware.RequestLogger(app.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)

	cors := secmiddleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.CORSOrigins
	r.Use(secmiddleware.CORS(cors))

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", infoHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			limiter := secmiddleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
			r.Use(limiter.Middleware)
		}
		r.Use(secmiddleware.BodyLimit(maxBodyBytes))

		r.Mount("/", diagnosis.NewHandler(app.Service, cfg.Auth, app.Log).Routes())
	})

	return r
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":       "fuzzydx respiratory diagnosis service",
		"version":    "0.1.0",
		"strategies": []diagnosis.Strategy{diagnosis.StrategyWeighted, diagnosis.StrategyMamdani},
		"docs":       "/api/v1",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// readyHandler reports ready once a knowledge base is active and, for
// database sources, the connection answers.
func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if base := app.Store.Current(); base != nil {
			checks["knowledge"] = "ready"
		} else {
			checks["knowledge"] = "not ready: " + knowledge.ErrNotLoaded.Error()
		}

		if hc, ok := app.Source.(knowledge.HealthChecker); ok {
			if err := hc.Health(r.Context()); err != nil {
				checks[app.Source.Name()] = "not ready: " + err.Error()
			} else {
				checks[app.Source.Name()] = "ready"
			}
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
