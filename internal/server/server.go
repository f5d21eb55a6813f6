// Package server provides the HTTP server setup and wiring.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/petmint/petmint/internal/config"
	"github.com/petmint/petmint/internal/images"
	marketDomain "github.com/petmint/petmint/internal/market/domain"
	marketTransport "github.com/petmint/petmint/internal/market/transport"
	"github.com/petmint/petmint/internal/middleware/logging"
	"github.com/petmint/petmint/internal/middleware/ratelimit"
	"github.com/petmint/petmint/internal/observability/metrics"
	petsDomain "github.com/petmint/petmint/internal/pets/domain"
	petsTransport "github.com/petmint/petmint/internal/pets/transport"
	"github.com/petmint/petmint/internal/storage"
)

// maxBodyBytes caps request bodies; pet images travel in responses, not
// requests, so bodies stay small.
const maxBodyBytes = 1 << 20

// Ledger is the node surface the domains verify payments against. It is
// satisfied by *ledger.Client.
type Ledger interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Server is the HTTP server
type Server struct {
	cfg    *config.Config
	store  storage.Store
	logger *slog.Logger
	router *chi.Mux

	petsSvc   petsDomain.Service
	marketSvc marketDomain.Service
}

// New creates a new server wired to the given store and ledger client.
// mint carries the token, treasury and price read from configuration.
func New(cfg *config.Config, store storage.Store, ldg Ledger, mint petsDomain.MintPolicy, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		router: chi.NewRouter(),
	}

	renderer := images.NewCompositor(cfg.Images.AssetDir, logger)
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	petsImpl := petsDomain.NewService(store, renderer, ldg, mint, rng)
	marketImpl := marketDomain.NewService(store, ldg, mint.Token)

	s.petsSvc = petsDomain.LoggingMiddleware(logger)(petsDomain.MetricsMiddleware()(petsImpl))
	s.marketSvc = marketDomain.LoggingMiddleware(logger)(marketDomain.MetricsMiddleware()(marketImpl))

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the metrics HTTP handler for separate metrics server
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

func (s *Server) setupMiddleware() {
	// 1. Body size limit
	s.router.Use(MaxBodySize(maxBodyBytes))

	// 2. Rate limiting (bypasses health checks)
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
		CleanupMinutes: s.cfg.RateLimit.CleanupMinutes,
	}))

	// 3. Standard middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// 4. CORS
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	// Health checks
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)

	// Prometheus metrics (404 when disabled)
	s.router.Handle("/metrics", metrics.Handler())

	petsHandler := petsTransport.NewHandler(s.petsSvc)
	marketHandler := marketTransport.NewHandler(s.marketSvc)

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/pets", func(r chi.Router) {
			petsHandler.RegisterRoutes(r)
		})
		r.Route("/market", func(r chi.Router) {
			marketHandler.RegisterRoutes(r)
		})
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady also checks the store so a broken database flips readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListPets(r.Context(), storage.PetFilter{}); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
