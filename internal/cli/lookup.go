package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/allyourbase/dialplan/internal/numberinfo"
	"github.com/allyourbase/dialplan/metadata"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type <number>",
	Short: "Print the line type of a number",
	Example: `  dialplan type "+44 7400 123456"
  dialplan type --region US "800 253 0000"`,
	Args: cobra.ExactArgs(1),
	RunE: runType,
}

var matchCmd = &cobra.Command{
	Use:   "match <number> <number>",
	Short: "Check whether two numbers are the same",
	Long: `Compare two numbers and print how closely they match:
EXACT_MATCH, NSN_MATCH, SHORT_NSN_MATCH or NO_MATCH. NOT_A_NUMBER means one of
them could not be parsed.

With --region the first number is read as dialled from that region.`,
	Example: `  dialplan match "+1 650 253 0000" "650 253 0000"
  dialplan match --region CH "044 668 18 00" "+41 44 668 18 00"`,
	Args: cobra.ExactArgs(2),
	RunE: runMatch,
}

var exampleCmd = &cobra.Command{
	Use:   "example [region|calling-code]",
	Short: "Print an example number for a region",
	Long: `Print a valid example number of the given type for a region. A numeric
argument names a non-geographic calling code such as 800.`,
	Example: `  dialplan example GB
  dialplan example --type mobile DE
  dialplan example 800`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExample,
}

func init() {
	exampleCmd.Flags().String("type", "FIXED_LINE", "Number type, e.g. FIXED_LINE, MOBILE, TOLL_FREE")
}

func runType(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}
	n, err := parseArg(e, cfg, args[0])
	if err != nil {
		return err
	}
	t := e.GetNumberType(n)

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"input":  args[0],
			"type":   t.String(),
			"region": e.RegionCodeForNumber(n),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}

	var m phonenumber.MatchType
	if cfg.Engine.DefaultRegion != "" {
		first, err := e.Parse(args[0], cfg.Engine.DefaultRegion)
		if err != nil {
			return parseFailure(args[0], cfg.Engine.DefaultRegion, err)
		}
		m = e.IsNumberMatchWithString(first, args[1])
	} else {
		m = e.IsNumberMatchStrings(args[0], args[1])
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"a":     args[0],
			"b":     args[1],
			"match": m.String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), m)
	return nil
}

func runExample(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}

	target := cfg.Engine.DefaultRegion
	if len(args) == 1 {
		target = strings.ToUpper(args[0])
	}
	if target == "" {
		return withHints(fmt.Errorf("no region given"),
			"dialplan example GB",
			"dialplan example --region GB")
	}

	typeName, _ := cmd.Flags().GetString("type")
	t, err := phonenumber.ParseNumberType(typeName)
	if err != nil {
		return err
	}

	var (
		n      *phonenumber.PhoneNumber
		ok     bool
		region = target
	)
	if cc, convErr := strconv.Atoi(target); convErr == nil {
		n, ok = e.GetExampleNumberForNonGeoEntity(cc)
		region = metadata.NonGeoRegion
		if ok {
			t = e.GetNumberType(n)
		}
	} else {
		if e.CountryCodeForRegion(target) == 0 {
			return withHints(fmt.Errorf("unknown region %s", target), "dialplan regions   # list supported regions")
		}
		n, ok = e.GetExampleNumberForType(target, t)
	}
	if !ok {
		return fmt.Errorf("no %s example for %s", t, target)
	}

	ex := numberinfo.Example{
		Region: region,
		Type:   t.String(),
		Number: numberinfo.Describe(e, n, ""),
	}
	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), ex)
	}
	printNumber(cmd.OutOrStdout(), ex.Number, outColor(cmd))
	return nil
}
