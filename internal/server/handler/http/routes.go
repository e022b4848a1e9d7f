package http

import (
	"net/http"

	"github.com/atinyakov/memberctl/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler of the membership console.
//
// Routes:
//
//	POST /api/console → console.Run (requires a client certificate)
//	GET  /metrics     → Prometheus metrics
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") : rejects non-JSON bodies
//  2. WithRequestLogging(logger)         : logs every request
//  3. CertAuth                          : /api only, enforces TLS client certificates
func NewRouter(console *ConsoleHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CertAuth)
		r.Post("/console", console.Run)
	})

	return r
}
