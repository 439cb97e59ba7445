package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/config"
	errwrap "github.com/r6lens/r6lens/internal/errors"
	"github.com/r6lens/r6lens/internal/metrics"
	"github.com/r6lens/r6lens/internal/observability"
	"github.com/r6lens/r6lens/internal/server"
	"github.com/r6lens/r6lens/internal/server/handlers"
)

var (
	serveClientFlags clientFlags
	serverPort       int
	serverHost       string
)

// telemetryHealthChecker ensures the telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewServiceUnavailableError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP facade. Every request is served by one shared client, so all
callers draw from the same request quota.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (validated; quota changes need a restart)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		overrides := serveClientFlags.overrides()
		serverOverrides := map[string]any{}
		if cmd.Flags().Changed("host") {
			serverOverrides["host"] = serverHost
		}
		if cmd.Flags().Changed("port") {
			serverOverrides["port"] = serverPort
		}
		if len(serverOverrides) > 0 {
			overrides["server"] = serverOverrides
		}

		cfg, err := loadConfig(ctx, overrides)
		if err != nil {
			return err
		}

		namespace := config.AppName
		observability.InitServerLogger(config.AppName, cfg.Logging.Level, cfg.Logging.Profile, namespace)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port, namespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "metrics initialization failed")
			}
		}

		c, db, cleanup, err := newClient(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		snap, _ := c.RateLimit()
		logger.Info("Initializing server",
			zap.String("service", config.AppName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", observability.GetMetricsPort()),
			zap.Int("rate_limit", snap.Limit),
			zap.Duration("rate_interval", snap.Interval),
			zap.String("rate_policy", snap.Policy),
			zap.Bool("cache_enabled", db != nil))

		if db != nil {
			if removed, err := db.PurgeExpired(ctx); err != nil {
				logger.Warn("Failed to purge expired cache entries", zap.Error(err))
			} else if removed > 0 {
				metrics.RecordCachePurge(removed)
				logger.Info("Purged expired cache entries", zap.Int64("removed", removed))
			}
		}

		hm := handlers.NewHealthManager(versionInfo.Version)
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
		if db != nil {
			hm.RegisterChecker("payload_cache", handlers.StoreCheck(db.DB))
		}

		srv := server.New(cfg.Server, c, hm)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: the HTTP server stops before the logger flushes.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: validating configuration")

			reloaded, err := config.Load(ctx, overrides)
			if err != nil {
				logger.Error("Config reload failed", zap.String("file", config.ConfigFileUsed()), zap.Error(err))
				return errwrap.Wrap(ctx, errwrap.CodeInvalidInput, err, "config reload failed")
			}

			if reloaded.RateLimit != cfg.RateLimit {
				logger.Warn("Rate limit settings changed; restart to apply",
					zap.Int("limit", reloaded.RateLimit.Limit),
					zap.Duration("interval", reloaded.RateLimit.Interval),
					zap.String("policy", reloaded.RateLimit.Policy))
			}
			logger.Info("Configuration reloaded", zap.String("file", config.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		go func() {
			errChan <- srv.Start()
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Start returns nil once a shutdown handler has stopped the server.
		if err := <-errChan; err != nil {
			return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server error")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host (default from config)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port (default from config)")
	serveClientFlags.register(serveCmd)
}
