package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/core/client"
	apperrors "github.com/r6lens/r6lens/internal/errors"
	"github.com/r6lens/r6lens/internal/metrics"
	"github.com/r6lens/r6lens/internal/observability"
	"github.com/r6lens/r6lens/internal/server/handlers"
	servermw "github.com/r6lens/r6lens/internal/server/middleware"
)

// Server is the HTTP facade over one stats client.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	api    *handlers.API
	health *handlers.HealthManager
}

// New builds the router. api is shared by every request; the caller keeps
// ownership and closes it after Shutdown. health may be nil.
func New(cfg config.ServerConfig, api *client.Client, health *handlers.HealthManager) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// RequestID → Metrics → Recovery
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	if health == nil {
		health = handlers.NewHealthManager(handlers.AppVersion)
	}

	s := &Server{
		router: r,
		cfg:    cfg,
		health: health,
	}
	if api != nil {
		s.api = handlers.NewAPI(api)
		health.RegisterChecker("governor", handlers.GovernorCheck(api))
	}

	s.registerRoutes()

	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// Start listens until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	metrics.SetServerStartTime(time.Now().Unix())
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("host", s.cfg.Host),
			zap.Int("port", s.cfg.Port),
			zap.String("addr", s.server.Addr))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}
