package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskhive/taskhive/config"
	"github.com/taskhive/taskhive/internal/handlers"
	"github.com/taskhive/taskhive/internal/rpc"
)

// Server wraps the gateway HTTP server and its RPC client.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	rpcClient  *rpc.Client
}

// New constructs the gateway with basic middleware and defaults.
func New(cfg config.Config) (*Server, error) {
	rpcClient, err := rpc.Dial(cfg.RabbitMQ.URL, cfg.RPCTimeout)
	if err != nil {
		return nil, fmt.Errorf("rpc dial failed: %w", err)
	}

	authMiddleware := handlers.RequireAuth(rpcClient)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/user", func(r chi.Router) {
		handlers.UserRouter(r, rpcClient, authMiddleware)
	})
	router.Route("/task", func(r chi.Router) {
		handlers.TaskRouter(r, rpcClient, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		rpcClient:  rpcClient,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires, then closes the
// RPC connection.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.rpcClient != nil {
		_ = s.rpcClient.Close()
	}
	return err
}
