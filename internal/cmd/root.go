package cmd

import (
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Rainbow Six Siege stats client with a shared request quota",
	Long: `r6lens queries the r6stats API for player stats and leaderboards.

Every request made by one invocation (or one server process) draws from a
single client-side quota so the account limit is never exceeded. Use the
subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early so CLI runs do not emit metrics to stdout.
	// Server mode initializes the Prometheus exporter later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/r6lens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig wires the logger and pins the config file. Commands call
// loadConfig to read it so each one sees its own flag overrides.
func initConfig() {
	observability.InitCLILogger(config.AppName, verbose)

	config.SetConfigFile(cfgFile)
	if cfgFile != "" {
		observability.CLILogger.Debug("Using config file", zap.String("path", cfgFile))
	}
}
