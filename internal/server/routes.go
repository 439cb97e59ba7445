package server

import (
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/observability"
	"github.com/r6lens/r6lens/internal/server/handlers"
)

// AdminTokenEnv enables POST /admin/signal when set.
const AdminTokenEnv = config.EnvPrefix + "ADMIN_TOKEN"

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)
	s.router.Get("/health/startup", s.health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	if s.api != nil {
		s.router.Route("/v1", func(r chi.Router) {
			r.Get("/stats/{platform}/{username}/{kind}", s.api.Stats)
			r.Get("/leaderboard/{platform}", s.api.Leaderboard)
			r.Get("/ratelimit", s.api.RateLimit)
		})
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint mounts the gofulmen signal handler behind a bearer
// token. Without the token the endpoint does not exist.
func (s *Server) registerAdminEndpoint() {
	adminToken := strings.TrimSpace(os.Getenv(AdminTokenEnv))
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no " + AdminTokenEnv + " set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
	}
}
