// Package server implements the HTTP read surface: the snapshot API the
// dashboard polls, health and Prometheus endpoints, and the middleware stack.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cubemon/cubemon/internal/config"
	"github.com/cubemon/cubemon/internal/snapshot"
	"github.com/cubemon/cubemon/internal/storage"
)

// New creates a Server instance backed by the snapshot cache and the store.
func New(cache *snapshot.Cache, store *storage.Repository, cfg *config.Config) *Server {
	return &Server{
		cache:          cache,
		storage:        store,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.Count,
		hardLimitWin:   cfg.RateLimit.Window,
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	rateLimit := s.RateLimitMiddleware()
	mux.Handle("GET /v1/servers", rateLimit(http.HandlerFunc(s.handleServers)))
	mux.Handle("GET /v1/servers/{platform}", rateLimit(http.HandlerFunc(s.handlePlatform)))
	mux.Handle("GET /v1/server", rateLimit(http.HandlerFunc(s.handleServer)))

	mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealth))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.LoggingMiddleware(CORSMiddleware(mux))
}
