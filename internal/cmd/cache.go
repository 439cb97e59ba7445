package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/r6lens/r6lens/internal/core/store"
	"github.com/r6lens/r6lens/internal/metrics"
	"github.com/r6lens/r6lens/internal/observability"
	"github.com/r6lens/r6lens/internal/output"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and purge the payload cache",
}

var (
	cacheListQuery  store.CacheQuery
	cachePurgeQuery store.CacheQuery
	cacheQueryAll   = store.CacheQuery{All: true}
)

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := cacheListQuery
		if query.URL == "" && query.Prefix == "" && !query.ExpiredOnly {
			query.All = true
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		entries, err := db.ListCachedPayloads(ctx, query)
		if err != nil {
			return err
		}

		sink, err := openCommandSink(cmd, format, "cache.list")
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		switch format {
		case output.FormatJSON:
			payload, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			return sink.writeRendered(string(payload))
		case output.FormatYAML:
			payload, err := yaml.Marshal(entries)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(sink.writer, string(payload))
			return err
		}

		now := time.Now()
		lines := []string{"Payload Cache", "", "Database: " + getDBPath(cfg), ""}
		if len(entries) == 0 {
			lines = append(lines, "(no cached responses)")
		}
		for _, entry := range entries {
			state := "expires " + formatTime(entry.ExpiresAt)
			if entry.Expired(now) {
				state = "expired"
			}
			lines = append(lines, fmt.Sprintf("%s (%d bytes, %s)", entry.URL, entry.Size, state))
		}
		_, err = fmt.Fprint(sink.writer, ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return err
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached responses",
	Long:  "Delete cached responses. One of --all, --expired, --url or --prefix is required.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cachePurgeQuery.Validate(); err != nil {
			return err
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		removed, err := db.PurgeCachedPayloads(ctx, cachePurgeQuery)
		if err != nil {
			return err
		}
		metrics.RecordCachePurge(removed)

		observability.CLILogger.Info("Payload cache purged",
			zap.Int64("removed", removed),
			zap.String("database", getDBPath(cfg)))
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses\n", removed)
		return nil
	},
}

func registerCacheQueryFlags(cmd *cobra.Command, q *store.CacheQuery) {
	cmd.Flags().BoolVar(&q.All, "all", false, "Match every cached response")
	cmd.Flags().BoolVar(&q.ExpiredOnly, "expired", false, "Match only responses past their TTL")
	cmd.Flags().StringVar(&q.URL, "url", "", "Match one request URL exactly")
	cmd.Flags().StringVar(&q.Prefix, "prefix", "", "Match request URLs with this prefix")
}

func init() {
	registerCacheQueryFlags(cacheListCmd, &cacheListQuery)
	registerOutputFlags(cacheListCmd)
	registerCacheQueryFlags(cachePurgeCmd, &cachePurgeQuery)

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
