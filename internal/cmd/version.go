package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/server/handlers"
)

var (
	extended    bool
	versionJSON bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		info := handlers.CurrentVersion()

		if versionJSON {
			payload, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(payload))
			return err
		}

		fmt.Fprintf(out, "%s %s\n", config.AppName, versionInfo.Version)
		if extended {
			fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
			fmt.Fprintf(out, "Built: %s\n", versionInfo.BuildDate)
			fmt.Fprintf(out, "Go: %s\n", info.App.GoVersion)
			fmt.Fprintf(out, "\n")
			fmt.Fprintf(out, "Gofulmen: %s\n", info.Dependencies.Gofulmen)
			fmt.Fprintf(out, "Crucible: %s\n", info.Dependencies.Crucible)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print the version document as JSON")
}
