package cli

import (
	"errors"
	"fmt"

	"github.com/allyourbase/dialplan/internal/cli/ui"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <number>...",
	Short: "Check numbers against their numbering plans",
	Long: `Check each number against the numbering plan of its region. Exits with an
error when any number does not parse or is not valid.`,
	Example: `  dialplan validate "+1 650 253 0000" "+44 20 7946 0958"
  dialplan validate --region CH "044 668 18 00"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

// validation is the outcome of checking one number.
type validation struct {
	Input    string `json:"input"`
	Valid    bool   `json:"valid"`
	E164     string `json:"e164,omitempty"`
	Region   string `json:"region,omitempty"`
	Type     string `json:"type,omitempty"`
	Possible string `json:"possible,omitempty"`
	Error    string `json:"error,omitempty"`
}

var errNotValid = errors.New("not every number is valid")

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}

	results := make([]validation, 0, len(args))
	bad := 0
	for _, text := range args {
		v := validation{Input: text}
		n, err := e.Parse(text, defaultRegion(cfg))
		if err != nil {
			v.Error = err.Error()
		} else {
			v.Valid = e.IsValidNumber(n)
			v.E164 = e.Format(n, phonenumber.E164)
			v.Region = e.RegionCodeForNumber(n)
			v.Type = e.GetNumberType(n).String()
			v.Possible = e.IsPossibleNumberWithReason(n).String()
		}
		if !v.Valid {
			bad++
		}
		results = append(results, v)
	}

	if outputFormat(cmd) == "json" {
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		printValidations(cmd, results)
	}

	if bad > 0 {
		return fmt.Errorf("%w: %d of %d failed", errNotValid, bad, len(args))
	}
	return nil
}

func printValidations(cmd *cobra.Command, results []validation) {
	w := cmd.OutOrStdout()
	c := outColor(cmd)
	for _, v := range results {
		switch {
		case v.Error != "":
			fmt.Fprintf(w, "%s %s  %s\n", yellow(ui.SymbolCross, c), v.Input, dim(v.Error, c))
		case !v.Valid:
			fmt.Fprintf(w, "%s %s  %s\n", yellow(ui.SymbolCross, c), v.Input,
				dim(fmt.Sprintf("%s, length %s", v.E164, v.Possible), c))
		default:
			fmt.Fprintf(w, "%s %s  %s\n", green(ui.SymbolCheck, c), v.Input,
				dim(fmt.Sprintf("%s %s %s", v.E164, v.Region, v.Type), c))
		}
	}
}
