package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/core/client"
	"github.com/r6lens/r6lens/internal/core/store"
	"github.com/r6lens/r6lens/internal/observability"
)

// loadConfig reads the layered configuration, applying overrides collected
// from command flags.
func loadConfig(ctx context.Context, overrides ...map[string]any) (*config.Config, error) {
	cfg, err := config.Load(ctx, overrides...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// clientFlags are the quota and cache flags shared by every command that talks
// to the API.
type clientFlags struct {
	limit    int
	interval string
	policy   string
	noCache  bool
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.limit, "rate-limit", -1, "Requests per window (0 disables the governor; default from config)")
	cmd.Flags().StringVar(&f.interval, "rate-interval", "", "Quota window length, e.g. 60s (default from config)")
	cmd.Flags().StringVar(&f.policy, "rate-policy", "", "Quota policy: blocking, fail_fast (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Bypass the payload cache")
}

// overrides maps the flags onto config paths. Unset flags are left out so file
// and environment values survive.
func (f *clientFlags) overrides() map[string]any {
	overrides := map[string]any{}
	rateLimit := map[string]any{}
	if f.limit >= 0 {
		rateLimit["limit"] = f.limit
	}
	if f.interval != "" {
		rateLimit["interval"] = f.interval
	}
	if f.policy != "" {
		rateLimit["policy"] = f.policy
	}
	if len(rateLimit) > 0 {
		overrides["rate_limit"] = rateLimit
	}
	if f.noCache {
		overrides["cache"] = map[string]any{"enabled": false}
	}
	return overrides
}

// buildClient creates the single API client for a CLI invocation. The returned
// cleanup is always safe to call.
func buildClient(ctx context.Context, cfg *config.Config) (*client.Client, func(), error) {
	c, _, cleanup, err := newClient(ctx, cfg, observability.CLILogger)
	return c, cleanup, err
}

// newClient creates the process-wide API client. When the payload cache is
// enabled the store is opened, attached and returned; cleanup closes the
// client first and the store last.
func newClient(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*client.Client, *store.Store, func(), error) {
	opts := client.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		UserAgent:  cfg.API.UserAgent,
		Logger:     logger,
	}

	closers := []func() error{}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var db *store.Store
	if cfg.Cache.Enabled {
		var err error
		db, err = openStore(ctx, cfg)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("open payload cache: %w", err)
		}
		closers = append(closers, db.Close)
		opts.Cache = db
		opts.CacheTTL = cfg.Cache.TTL

		if logger != nil {
			logger.Debug("Payload cache enabled",
				zap.String("database", getDBPath(cfg)),
				zap.Duration("ttl", cfg.Cache.TTL))
		}
	}

	c, err := client.NewWithRateLimit(cfg.API.Token, cfg.RateLimit.Apply, opts)
	if err != nil {
		cleanup()
		return nil, nil, func() {}, err
	}
	closers = append(closers, c.Close)

	return c, db, cleanup, nil
}
