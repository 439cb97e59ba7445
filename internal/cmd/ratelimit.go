package cmd

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/output"
)

var rateLimitClientFlags clientFlags

var rateLimitCmd = &cobra.Command{
	Use:     "ratelimit",
	Aliases: []string{"rate-limit"},
	Short:   "Show the configured request quota",
	Long: `Show the request quota a client built from the current configuration starts
with. The quota lives in process memory, so a fresh invocation always reports
an expired window with the full limit available.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(ctx, rateLimitClientFlags.overrides())
		if err != nil {
			return err
		}

		// No token is needed to inspect the quota, so build the governor alone.
		snap := cfg.RateLimit.Apply(engine.NewRateLimitBuilder()).Build().Snapshot()

		sink, err := openCommandSink(cmd, format, "ratelimit")
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if format == output.FormatTable {
			_, err = fmt.Fprint(sink.writer, drawSnapshotBox(snap))
			return err
		}

		rendered, err := output.NewFormatter(format).FormatRateLimit(snap)
		if err != nil {
			return err
		}
		return sink.writeRendered(rendered)
	},
}

func drawSnapshotBox(snap engine.Snapshot) string {
	lines := []string{"Request Quota", ""}
	for _, row := range output.SnapshotRows(snap) {
		lines = append(lines, fmt.Sprintf("%-10s %s", row[0]+":", row[1]))
	}
	return ascii.DrawBox(strings.Join(lines, "\n"), 0)
}

func init() {
	rootCmd.AddCommand(rateLimitCmd)

	rateLimitClientFlags.register(rateLimitCmd)
	registerOutputFlags(rateLimitCmd)
}
