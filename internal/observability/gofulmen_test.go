package observability_test

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/observability"
)

func TestLoggers(t *testing.T) {
	t.Run("CLI logger", func(t *testing.T) {
		observability.InitCLILogger("r6lens-test", false)
		require.NotNil(t, observability.CLILogger)

		observability.CLILogger.Info("rate limit snapshot",
			zap.Int("limit", 60),
			zap.Int("remaining", 59))
	})

	t.Run("Verbose CLI logger", func(t *testing.T) {
		observability.InitCLILogger("r6lens-test", true)
		require.NotNil(t, observability.CLILogger)

		observability.CLILogger.Debug("admission waited",
			zap.Duration("wait", 0))
	})

	t.Run("Structured server logger", func(t *testing.T) {
		observability.InitServerLogger("r6lens-test", "debug", "STRUCTURED", "r6lens")
		require.NotNil(t, observability.ServerLogger)

		observability.ServerLogger.Info("request served",
			zap.String("endpoint", "/v1/ratelimit"),
			zap.Int("status", 200))
	})

	t.Run("Simple server logger", func(t *testing.T) {
		logger, err := observability.NewServerLogger("r6lens-test", "warn", "simple", "")
		require.NoError(t, err)
		require.NotNil(t, logger)

		logger.SetLevel(logging.DEBUG)
		logger.Debug("debug enabled")
	})
}

func TestCrucibleVersion(t *testing.T) {
	version := crucible.GetVersion()
	assert.NotEmpty(t, version.Gofulmen)
	assert.NotEmpty(t, version.Crucible)
	assert.NotEmpty(t, crucible.GetVersionString())
}
