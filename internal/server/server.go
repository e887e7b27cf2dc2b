// Package server exposes the engine over HTTP.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gautamkmahato/API-Weaver-Server/internal/config"
	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/gautamkmahato/API-Weaver-Server/internal/metrics"
	"github.com/gautamkmahato/API-Weaver-Server/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Contract is the OpenAPI description of the /v1 routes. Requests to those
// routes are validated against it.
//
//go:embed api.yaml
var Contract []byte

const shutdownTimeout = 30 * time.Second

type Server struct {
	cfg      config.ServerConfig
	engine   *engine.Engine
	verifier middleware.Verifier
	registry *metrics.Registry
	logger   *slog.Logger
	router   chi.Router
}

type Option func(*Server)

// WithVerifier sets the Auth Verifier for bearer tokens. Without one every
// /v1 request is rejected.
func WithVerifier(v middleware.Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) { s.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(cfg config.ServerConfig, eng *engine.Engine, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.verifier == nil {
		s.verifier = middleware.StaticVerifier(nil)
	}

	mwOpts := middleware.DefaultOptions()
	mwOpts.Security.RegisterBearer("bearerAuth", s.verifier)
	mwOpts.ErrorHandler = s.contractError

	contract, err := middleware.NewFromBytes(Contract, mwOpts)
	if err != nil {
		return nil, fmt.Errorf("loading service contract: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.requestID)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", s.registry.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.limitBody)
		r.Use(contract.Handler)

		r.Post("/v1/normalize", s.handleNormalize)
		r.Post("/v1/validate", s.handleValidate)
		r.Post("/v1/synthesize", s.handleSynthesize)
		r.Get("/v1/projects/{project}/documents/{document}", s.handleGetDocument)
		r.Post("/v1/projects/{project}/documents/{document}", s.handleImportDocument)
	})

	s.router = r
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		s.logger.Info("Server starting", "address", s.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Server stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
