package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/output"
)

var (
	leaderboardClientFlags clientFlags
	leaderboardPlatform    string
	leaderboardRegion      string
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Fetch the ranked leaderboard",
	Long:  "Fetch the ranked leaderboard for a platform, optionally narrowed to one region (ncsa, emea, apac).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		platform, err := core.ParsePlatform(leaderboardPlatform)
		if err != nil {
			return err
		}

		var region *core.Region
		if value := strings.TrimSpace(leaderboardRegion); value != "" && !strings.EqualFold(value, "all") {
			parsed, err := core.ParseRegion(value)
			if err != nil {
				return err
			}
			region = &parsed
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(ctx, leaderboardClientFlags.overrides())
		if err != nil {
			return err
		}

		c, cleanup, err := buildClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		board, err := c.Leaderboard().Get(ctx, platform, region)
		if err != nil {
			return err
		}

		stem := "leaderboard." + platform.String()
		if region != nil {
			stem += "." + region.String()
		}
		sink, err := openCommandSink(cmd, format, stem)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		rendered, err := output.NewFormatter(format).FormatLeaderboard(board)
		if err != nil {
			return err
		}
		return sink.writeRendered(rendered)
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)

	leaderboardCmd.Flags().StringVarP(&leaderboardPlatform, "platform", "p", string(core.PlatformPC), "Platform: pc, xbox, ps4")
	leaderboardCmd.Flags().StringVarP(&leaderboardRegion, "region", "r", "all", "Region: ncsa, emea, apac, all")
	leaderboardClientFlags.register(leaderboardCmd)
	registerOutputFlags(leaderboardCmd)
}
