package cli

import (
	"fmt"
	"strings"

	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format <number>",
	Short: "Render a number in one format",
	Long: `Render a phone number in E164, INTERNATIONAL, NATIONAL or RFC3966 form.

--from renders the number as dialled from another region, using that
region's international prefix. --original keeps the way the number was
written where possible. --carrier adds a domestic carrier code to the
national form.`,
	Example: `  dialplan format --format E164 "+1 (650) 253-0000"
  dialplan format --region GB --format national "+44 121 234 5678"
  dialplan format --region GB --from US "0121 234 5678"
  dialplan format --region AR --carrier 15 "011 8765 4321"`,
	Args: cobra.ExactArgs(1),
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().String("format", "INTERNATIONAL", "Output format: E164, INTERNATIONAL, NATIONAL or RFC3966")
	formatCmd.Flags().String("from", "", "Region the number is dialled from")
	formatCmd.Flags().Bool("original", false, "Keep the original formatting where possible")
	formatCmd.Flags().String("carrier", "", "Domestic carrier code for the national format")
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("format")
	f, err := phonenumber.ParseFormat(formatName)
	if err != nil {
		return err
	}
	from, _ := cmd.Flags().GetString("from")
	original, _ := cmd.Flags().GetBool("original")
	carrier, _ := cmd.Flags().GetString("carrier")

	n, err := parseArg(e, cfg, args[0])
	if err != nil {
		return err
	}

	var out, mode string
	switch {
	case original:
		mode = "ORIGINAL"
		out = e.FormatInOriginalFormat(n, orRegion(from, defaultRegion(cfg)))
	case from != "":
		mode = "OUT_OF_COUNTRY"
		out = e.FormatOutOfCountryCallingNumber(n, strings.ToUpper(from))
	case carrier != "":
		mode = "NATIONAL_WITH_CARRIER"
		out = e.FormatNationalNumberWithCarrierCode(n, carrier)
	default:
		mode = f.String()
		out = e.Format(n, f)
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"input":  args[0],
			"format": mode,
			"output": out,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func orRegion(region, fallback string) string {
	if region != "" {
		return strings.ToUpper(region)
	}
	return fallback
}
