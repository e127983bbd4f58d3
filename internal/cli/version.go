package cli

import (
	"fmt"

	"github.com/allyourbase/dialplan/internal/cli/ui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print dialplan version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat(cmd) == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"version": buildVersion,
				"commit":  buildCommit,
				"date":    buildDate,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (commit: %s, built: %s)\n",
			ui.BrandEmoji, ui.BrandName, buildVersion, buildCommit, buildDate)
		return nil
	},
}
