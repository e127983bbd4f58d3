package cli

import (
	"errors"
	"fmt"

	"github.com/allyourbase/dialplan/internal/audit"
	"github.com/allyourbase/dialplan/internal/cli/ui"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit [number]",
	Short: "Cross-check numbering plans against the libphonenumber data set",
	Long: `Compare dialplan's numbering plans with the reference libphonenumber data.

Without an argument every example number of every region is checked for
validity, region and type. With a number, only that number is compared.
Exits with an error when anything disagrees.`,
	Example: `  dialplan audit
  dialplan audit --metadata-dir ./plans
  dialplan audit --region CH "044 668 18 00"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

var errAuditFindings = errors.New("numbering plans disagree with the reference")

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, e, err := commandEngine(cmd)
	if err != nil {
		return err
	}

	var rep audit.Report
	if len(args) == 1 {
		findings, err := audit.Number(e, args[0], defaultRegion(cfg))
		if err != nil {
			return parseFailure(args[0], cfg.Engine.DefaultRegion, err)
		}
		rep = audit.Report{Checked: 1, Findings: findings}
	} else {
		isTTY := colorEnabled()
		sp := ui.NewStepSpinner(cmd.ErrOrStderr(), !isTTY)
		if isTTY {
			sp.Start("Auditing numbering plans...")
		}
		rep = audit.Plans(e)
		if isTTY {
			if len(rep.Findings) == 0 {
				sp.Done()
			} else {
				sp.Fail()
			}
		}
	}

	if outputFormat(cmd) == "json" {
		if rep.Findings == nil {
			rep.Findings = []audit.Finding{}
		}
		if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
	} else {
		if len(rep.Findings) > 0 {
			cols := []string{"Region", "Type", "Number", "Check", "Ours", "Reference"}
			rows := make([][]string, len(rep.Findings))
			for i, f := range rep.Findings {
				rows[i] = []string{f.Region, f.Type, f.Number, string(f.Check), f.Ours, f.Reference}
			}
			if err := writeRows(cmd, cols, rows); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checked %d numbers, %d disagreements\n", rep.Checked, len(rep.Findings))
	}

	if len(rep.Findings) > 0 {
		return fmt.Errorf("%w: %d findings", errAuditFindings, len(rep.Findings))
	}
	return nil
}
