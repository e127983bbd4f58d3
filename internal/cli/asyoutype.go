package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/spf13/cobra"
)

var asYouTypeCmd = &cobra.Command{
	Use:   "asyoutype [keys]",
	Short: "Show how a number is formatted while it is typed",
	Long: `Feed keys one at a time to the as-you-type formatter and print the
output after each key.

Without an argument, each line read from standard input is typed as a
separate number and only the final output is printed.`,
	Example: `  dialplan asyoutype --region US 6502530000
  dialplan asyoutype --region CH --remember 4 0446681800
  printf '+41446681800\n+16502530000\n' | dialplan asyoutype`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsYouType,
}

func init() {
	asYouTypeCmd.Flags().Int("remember", 0, "Track the position of the Nth typed key (1-based)")
}

type typingStep struct {
	Key    string `json:"key"`
	Output string `json:"output"`
}

type typingResult struct {
	Input    string       `json:"input"`
	Output   string       `json:"output"`
	Steps    []typingStep `json:"steps,omitempty"`
	Position *int         `json:"position,omitempty"`
}

// typeKeys feeds keys to f from a clean state. remember is the 1-based
// index of the key whose position is tracked, or 0.
func typeKeys(f *phonenumber.AsYouTypeFormatter, keys string, remember int) typingResult {
	f.Clear()
	res := typingResult{Input: keys}
	i := 0
	for _, r := range keys {
		i++
		var out string
		if i == remember {
			out = f.InputDigitAndRememberPosition(r)
		} else {
			out = f.InputDigit(r)
		}
		res.Steps = append(res.Steps, typingStep{Key: string(r), Output: out})
		res.Output = out
	}
	if remember > 0 && remember <= i {
		pos := f.RememberedPosition()
		res.Position = &pos
	}
	return res
}

func runAsYouType(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}
	remember, _ := cmd.Flags().GetInt("remember")
	if remember < 0 {
		return fmt.Errorf("--remember must be at least 1")
	}
	f := e.NewAsYouTypeFormatter(defaultRegion(cfg))

	if len(args) == 1 {
		res := typeKeys(f, args[0], remember)
		if outputFormat(cmd) == "json" {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		cols := []string{"Key", "Output"}
		rows := make([][]string, len(res.Steps))
		for i, s := range res.Steps {
			rows[i] = []string{s.Key, s.Output}
		}
		if err := writeRows(cmd, cols, rows); err != nil {
			return err
		}
		if res.Position != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "\nKey %d ends at position %d\n", remember, *res.Position)
		}
		return nil
	}

	sc := bufio.NewScanner(cmd.InOrStdin())
	jsonOut := outputFormat(cmd) == "json"
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		res := typeKeys(f, line, remember)
		if jsonOut {
			res.Steps = nil
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
