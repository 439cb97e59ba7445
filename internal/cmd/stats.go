package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/stats"
	"github.com/r6lens/r6lens/internal/observability"
	"github.com/r6lens/r6lens/internal/output"
)

var (
	statsClientFlags clientFlags
	statsPlatform    string
	statsUsernames   string
	statsWorkers     int
)

var statsCmd = &cobra.Command{
	Use:   "stats <kind> <username...>",
	Short: "Fetch player stats",
	Long: `Fetch one kind of stats for one or more players.

Kinds: generic, seasonal, operators, weapon-categories, weapons.

All lookups share one request quota. With the blocking policy extra lookups
wait for the next window; with fail_fast they are reported as rate limited.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsPlatform, "platform", "p", string(core.PlatformPC), "Platform: pc, xbox, ps4")
	statsCmd.Flags().StringVar(&statsUsernames, "usernames-file", "", "Read usernames from a file, one per line (- for stdin)")
	statsCmd.Flags().IntVar(&statsWorkers, "workers", 0, "Concurrent lookups (default from config)")
	statsClientFlags.register(statsCmd)
	registerOutputFlags(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kind, err := stats.ParseKind(args[0])
	if err != nil {
		return err
	}
	platform, err := core.ParsePlatform(statsPlatform)
	if err != nil {
		return err
	}
	usernames, err := resolveUsernames(args[1:], statsUsernames)
	if err != nil {
		return err
	}
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx, statsClientFlags.overrides())
	if err != nil {
		return err
	}

	c, cleanup, err := buildClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	workers := statsWorkers
	if workers <= 0 {
		workers = cfg.Workers
	}

	lookups := fetchStats(ctx, c.Stats(), kind, platform, usernames, workers)

	sink, err := openCommandSink(cmd, format, fmt.Sprintf("stats.%s.%s", kind, platform))
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	rendered, err := output.NewFormatter(format).FormatLookups(lookups)
	if err != nil {
		return err
	}
	if err := sink.writeRendered(rendered); err != nil {
		return err
	}

	return lookupFailure(lookups)
}

// statsFetcher is the part of stats.Client the CLI needs.
type statsFetcher interface {
	Get(ctx context.Context, kind stats.Kind, username string, platform core.Platform) (any, error)
}

// fetchStats runs one lookup per username, at most workers at a time. Results
// keep input order. A failed lookup is recorded on its entry and does not stop
// the others.
func fetchStats(ctx context.Context, fetcher statsFetcher, kind stats.Kind, platform core.Platform, usernames []string, workers int) []output.Lookup {
	lookups := make([]output.Lookup, len(usernames))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, username := range usernames {
		g.Go(func() error {
			lookup := output.Lookup{Username: username, Platform: platform, Kind: kind}

			data, err := fetcher.Get(ctx, kind, username, platform)
			if err != nil {
				lookup.Error = err.Error()
				if observability.CLILogger != nil {
					observability.CLILogger.Debug("Stats lookup failed",
						zap.String("username", username),
						zap.String("kind", kind.String()),
						zap.Error(err))
				}
			} else {
				lookup.Data = data
			}

			lookups[i] = lookup
			return nil
		})
	}
	_ = g.Wait()

	return lookups
}

// lookupFailure summarizes failed lookups as a command error so the process
// exits non-zero. Partial output has already been written.
func lookupFailure(lookups []output.Lookup) error {
	var failed []string
	for _, lookup := range lookups {
		if lookup.Error != "" {
			failed = append(failed, lookup.Username)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d lookups failed: %s", len(failed), len(lookups), strings.Join(failed, ", "))
}
