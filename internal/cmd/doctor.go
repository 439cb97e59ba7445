package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/core/transport"
	errwrap "github.com/r6lens/r6lens/internal/errors"
	"github.com/r6lens/r6lens/internal/observability"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the system and suggest fixes for common issues.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger := observability.CLILogger

		logger.Info("=== " + config.AppName + " doctor ===")
		logger.Info("")

		allChecks := true
		totalChecks := 6

		// Check 1: runtime
		logger.Info(fmt.Sprintf("[1/%d] Checking runtime... ✅ %s %s/%s", totalChecks, runtime.Version(), runtime.GOOS, runtime.GOARCH),
			zap.String("go_version", runtime.Version()),
			zap.String("os", runtime.GOOS),
			zap.String("arch", runtime.GOARCH))

		// Check 2: Crucible access
		version := crucible.GetVersion()
		if version.Crucible == "" {
			logger.Error(fmt.Sprintf("[2/%d] Checking Crucible access... ❌ Cannot access Crucible", totalChecks))
			ExitWithCode(logger, foundry.ExitExternalServiceUnavailable, "Cannot access Crucible", errwrap.NewServiceUnavailableError("Crucible unavailable"))
			return
		}
		logger.Info(fmt.Sprintf("[2/%d] Checking Crucible access... ✅ v%s (gofulmen v%s)", totalChecks, version.Crucible, version.Gofulmen))

		// Check 3: config file
		configPath := config.ConfigFileUsed()
		if configPath == "" {
			configPath = config.DefaultConfigPath()
		}
		switch {
		case configPath == "":
			logger.Warn(fmt.Sprintf("[3/%d] Checking config file... ⚠️  cannot resolve config directory", totalChecks))
			allChecks = false
		case fileExists(configPath):
			logger.Info(fmt.Sprintf("[3/%d] Checking config file... ✅ %s", totalChecks, configPath))
		default:
			logger.Info(fmt.Sprintf("[3/%d] Checking config file... ✅ none at %s (defaults in use; run '%s doctor init')", totalChecks, configPath, config.AppName))
		}

		cfg, cfgErr := loadConfig(ctx)
		if cfgErr != nil {
			logger.Error(fmt.Sprintf("[4/%d] Checking configuration... ❌ invalid", totalChecks), zap.Error(cfgErr))
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", cfgErr)
			return
		}

		// Check 4: API token
		if transport.NormalizeToken(cfg.API.Token) == "" {
			logger.Warn(fmt.Sprintf("[4/%d] Checking API token... ⚠️  not set (set api.token or %sAPI_TOKEN)", totalChecks, config.EnvPrefix))
			allChecks = false
		} else {
			logger.Info(fmt.Sprintf("[4/%d] Checking API token... ✅ configured", totalChecks))
		}

		// Check 5: request quota
		if cfg.RateLimit.Limit == 0 {
			logger.Warn(fmt.Sprintf("[5/%d] Checking request quota... ⚠️  disabled (requests are never throttled locally)", totalChecks))
		} else {
			logger.Info(fmt.Sprintf("[5/%d] Checking request quota... ✅ %d per %s (%s)", totalChecks, cfg.RateLimit.Limit, cfg.RateLimit.Interval, cfg.RateLimit.Policy))
		}

		// Check 6: payload cache
		if !cfg.Cache.Enabled {
			logger.Info(fmt.Sprintf("[6/%d] Checking payload cache... ✅ disabled", totalChecks))
		} else {
			db, err := openStore(ctx, cfg)
			if err != nil {
				logger.Warn(fmt.Sprintf("[6/%d] Checking payload cache... ⚠️  cannot open %s", totalChecks, getDBPath(cfg)), zap.Error(err))
				allChecks = false
			} else {
				defer db.Close() // nolint:errcheck
				entries, err := db.ListCachedPayloads(ctx, cacheQueryAll)
				if err != nil {
					logger.Warn(fmt.Sprintf("[6/%d] Checking payload cache... ⚠️  cannot read entries", totalChecks), zap.Error(err))
					allChecks = false
				} else {
					logger.Info(fmt.Sprintf("[6/%d] Checking payload cache... ✅ %s (%d entries, ttl %s)", totalChecks, getDBPath(cfg), len(entries), cfg.Cache.TTL))
				}
			}
		}

		logger.Info("")
		if allChecks {
			logger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", config.AppName))
		} else {
			logger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		logger.Info("")
		logger.Info("=== End Diagnostics ===")
	},
}

var (
	doctorInitForce bool
	doctorInitToken string
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if fileExists(configPath) && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		token := transport.NormalizeToken(doctorInitToken)
		mode := os.FileMode(0644)
		if token != "" {
			mode = 0600
		}

		if err := os.WriteFile(configPath, []byte(buildInitConfig(token)), mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

func buildInitConfig(token string) string {
	var b strings.Builder
	b.WriteString("# r6lens configuration\n")
	b.WriteString("api:\n")
	if token != "" {
		fmt.Fprintf(&b, "  token: %q\n", token)
	} else {
		fmt.Fprintf(&b, "  # token: \"\" # or set %sAPI_TOKEN\n", config.EnvPrefix)
	}
	b.WriteString("  timeout: 10s\n")
	b.WriteString("\n")
	b.WriteString("rate_limit:\n")
	b.WriteString("  limit: 60\n")
	b.WriteString("  interval: 60s\n")
	b.WriteString("  policy: blocking # or fail_fast\n")
	b.WriteString("\n")
	b.WriteString("cache:\n")
	b.WriteString("  enabled: false\n")
	b.WriteString("  ttl: 5m\n")
	return b.String()
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "Overwrite an existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitToken, "token", "", "API token to write into the config file")

	doctorCmd.AddCommand(doctorInitCmd)
	rootCmd.AddCommand(doctorCmd)
}
