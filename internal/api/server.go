// Package api serves the claim check and search history over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/klarifikasi/klarifikasi-api/internal/config"
	"github.com/klarifikasi/klarifikasi-api/internal/model"
	"github.com/klarifikasi/klarifikasi-api/internal/resilience"
	"github.com/klarifikasi/klarifikasi-api/internal/store"
)

// Checker runs a claim check.
type Checker interface {
	Check(ctx context.Context, query string, userID *int64) (*model.CheckResponse, error)
}

// Server holds the handler dependencies.
type Server struct {
	cfg      *config.Config
	checker  Checker
	history  store.Store
	breakers *resilience.Registry
	limiter  *ipLimiter
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithBreakers exposes breaker states on /health.
func WithBreakers(r *resilience.Registry) Option {
	return func(s *Server) { s.breakers = r }
}

// NewServer creates a Server. history may be nil, which disables the
// history endpoints.
func NewServer(cfg *config.Config, checker Checker, history store.Store, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		checker: checker,
		history: history,
		limiter: newIPLimiter(cfg.Server.RateLimitPerMinute, time.Now),
		version: "dev",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", s.identityHeader()},
		MaxAge:         300,
	}))
	r.Use(identity(s.identityHeader()))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Post("/search", s.handleSearch)
		r.Get("/search/{query}", s.handleSearchByPath)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireIdentity)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
	})

	return r
}

func (s *Server) identityHeader() string {
	if s.cfg.Server.IdentityHeader == "" {
		return "X-User-ID"
	}
	return s.cfg.Server.IdentityHeader
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
