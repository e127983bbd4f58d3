package cli

import (
	"strconv"

	"github.com/allyourbase/dialplan/internal/numberinfo"
	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List supported regions and calling codes",
	Example: `  dialplan regions
  dialplan regions --output csv`,
	Args: cobra.NoArgs,
	RunE: runRegions,
}

func runRegions(cmd *cobra.Command, args []string) error {
	_, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}
	regions := numberinfo.Regions(e)

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"regions":       regions,
			"calling_codes": e.SupportedCallingCodes(),
		})
	}

	cols := []string{"Region", "Code", "Prefix", "Main", "Example"}
	rows := make([][]string, len(regions))
	for i, r := range regions {
		rows[i] = []string{r.Region, "+" + strconv.Itoa(r.CountryCode), r.NationalPrefix, yesNo(r.MainForCode), r.Example}
	}
	return writeRows(cmd, cols, rows)
}
