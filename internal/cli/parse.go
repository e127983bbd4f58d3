package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/allyourbase/dialplan/internal/cli/ui"
	"github.com/allyourbase/dialplan/internal/config"
	"github.com/allyourbase/dialplan/internal/numberinfo"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <number>",
	Short: "Parse a number and show everything known about it",
	Long: `Parse a phone number and print its calling code, national number, region,
type, validity and every rendering.

Numbers written without a calling code are read as dialled from --region
(or engine.default_region).`,
	Example: `  dialplan parse "+41 44 668 18 00"
  dialplan parse --region GB "0121 234 5678 ext. 12"
  dialplan parse --region GB --from US "0121 234 5678"`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("from", "", "Region the number is dialled from, for out-of-country rendering")
}

// defaultRegion returns the region numbers without a calling code are
// read against.
func defaultRegion(cfg *config.Config) string {
	if cfg.Engine.DefaultRegion != "" {
		return cfg.Engine.DefaultRegion
	}
	return phonenumber.UnknownRegion
}

// parseArg parses text with the configured default region, keeping the raw
// input for original-format rendering.
func parseArg(e *phonenumber.Engine, cfg *config.Config, text string) (*phonenumber.PhoneNumber, error) {
	n, err := e.ParseAndKeepRawInput(text, defaultRegion(cfg))
	if err != nil {
		return nil, parseFailure(text, cfg.Engine.DefaultRegion, err)
	}
	return n, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}
	n, err := parseArg(e, cfg, args[0])
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		from = cfg.Engine.DefaultRegion
	}
	info := numberinfo.Describe(e, n, from)

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), info)
	}
	printNumber(cmd.OutOrStdout(), info, outColor(cmd))
	return nil
}

// outColor reports whether output written to cmd should be colored.
func outColor(cmd *cobra.Command) bool {
	return cmd.OutOrStdout() == os.Stdout && colorEnabledFd(os.Stdout.Fd())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// printNumber writes a human-readable report of info.
func printNumber(w io.Writer, info numberinfo.Number, useColor bool) {
	// Pad labels before colorizing so ANSI codes don't break alignment.
	padLabel := func(label string) string {
		return bold(fmt.Sprintf("%-16s", label), useColor)
	}
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %s %s\n", padLabel(label), value)
		}
	}

	status := boldGreen(ui.SymbolCheck+" valid", useColor)
	if !info.Valid {
		status = yellow(ui.SymbolCross+" not valid", useColor)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n", boldCyan(info.Formats.International, useColor), status)
	fmt.Fprintln(w)
	row("Region:", info.Region)
	row("Type:", info.Type)
	row("Calling code:", strconv.Itoa(info.CountryCode))
	row("National:", info.NationalSignificantNumber)
	row("Extension:", info.Extension)
	row("Carrier code:", info.PreferredDomesticCarrierCode)
	row("Source:", info.CountryCodeSource)
	row("Possible:", info.PossibleReason)
	row("Geographical:", yesNo(info.Geographical))
	row("Diallable abroad:", yesNo(info.InternationallyDiallable))
	fmt.Fprintln(w)
	row("E.164:", cyan(info.Formats.E164, useColor))
	row("National:", cyan(info.Formats.National, useColor))
	row("RFC 3966:", cyan(info.Formats.RFC3966, useColor))
	if info.Formats.OutOfCountry != "" {
		row("Out of country:", cyan(info.Formats.OutOfCountry, useColor))
	}
	if info.Formats.Original != "" {
		row("As written:", cyan(info.Formats.Original, useColor))
	}
	fmt.Fprintln(w)
}
