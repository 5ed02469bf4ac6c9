// Package api serves the provider over HTTP for callers that are not
// CloudFormation, and for local testing.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/controller-runtime/pkg/log"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

// ServerConfig configuração do servidor API
type ServerConfig struct {
	Port    int
	Host    string
	Version string
	Auth    AuthConfig
}

// Server representa o servidor HTTP da API
type Server struct {
	config   *ServerConfig
	router   *chi.Mux
	handlers *Handlers
	server   *http.Server
}

// NewServer builds the router. health may be nil.
func NewServer(config *ServerConfig, dispatcher Dispatcher, health HealthChecker) *Server {
	s := &Server{
		config:   config,
		router:   chi.NewRouter(),
		handlers: NewHandlers(dispatcher, health, config),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger)
	r.Use(Recoverer)

	// public
	r.Get("/health", s.handlers.Health)
	r.Handle("/metrics", promhttp.HandlerFor(ctrlmetrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.config.Auth))
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/events", s.handlers.Event)
		r.Get("/resource-types", s.handlers.ResourceTypes)
	})
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// pipelines with settle delays can take a while
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	log.Log.WithName("http").Info("Starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown para o servidor graciosamente
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router retorna o router Chi (para testes)
func (s *Server) Router() *chi.Mux {
	return s.router
}
