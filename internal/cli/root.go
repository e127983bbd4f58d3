package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/allyourbase/dialplan/internal/config"
	"github.com/allyourbase/dialplan/metadata"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersion is called from main to inject build-time version info.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

var rootCmd = &cobra.Command{
	Use:   "dialplan",
	Short: "dialplan — parse, validate and format phone numbers",
	Long: `dialplan parses phone numbers written the way people write them, checks them
against national numbering plans, and renders them in E.164, international,
national or RFC 3966 form.

Get started:
  dialplan parse "+41 44 668 18 00"
  dialplan format --region GB "0121 234 5678"
  dialplan serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format (shorthand for --output json)")
	rootCmd.PersistentFlags().String("output", "table", "Output format: table, json, or csv")
	rootCmd.PersistentFlags().String("region", "", "Default region for numbers written without a calling code (e.g. US)")
	rootCmd.PersistentFlags().String("config", "", "Path to dialplan.toml config file")
	rootCmd.PersistentFlags().String("metadata-dir", "", "Read numbering plans from this directory instead of the bundled set")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(asYouTypeCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	initHelp()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// outputFormat returns the resolved output format from flags.
// --json is a shorthand for --output json.
func outputFormat(cmd *cobra.Command) string {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	if jsonFlag {
		return "json"
	}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return "table"
	}
	return out
}

// loadConfig resolves configuration for cmd. The global --region and
// --metadata-dir flags and any extra overrides take precedence over the
// file and environment.
func loadConfig(cmd *cobra.Command, extra map[string]string) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	flags := make(map[string]string)
	if v, _ := cmd.Flags().GetString("region"); v != "" {
		flags["region"] = v
	}
	if v, _ := cmd.Flags().GetString("metadata-dir"); v != "" {
		flags["metadata-dir"] = v
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openEngine builds an engine over the configured plans: a metadata
// directory when one is set, the bundled set otherwise.
func openEngine(cfg *config.Config, logger *slog.Logger) (*phonenumber.Engine, error) {
	var (
		src *metadata.Store
		err error
	)
	if cfg.Engine.MetadataDir != "" {
		src, err = metadata.OpenDir(cfg.Engine.MetadataDir, logger)
	} else {
		src, err = metadata.NewBundledStore(logger)
	}
	if err != nil {
		return nil, fmt.Errorf("loading numbering plans: %w", err)
	}
	return phonenumber.New(src,
		phonenumber.WithLogger(logger),
		phonenumber.WithPatternCacheSize(cfg.Engine.PatternCacheSize),
	)
}

// commandEngine loads config and an engine for a one-shot command. Engine
// diagnostics are dropped unless logging.level is debug.
func commandEngine(cmd *cobra.Command) (*config.Config, *phonenumber.Engine, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.DiscardHandler)
	if cfg.Logging.Level == "debug" {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	e, err := openEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, e, nil
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCSV writes rows as CSV to the given writer.
// cols is the list of column headers; rows is a slice of string slices.
func writeCSV(w io.Writer, cols []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeTable writes rows as aligned columns.
func writeTable(w io.Writer, cols []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	fmt.Fprintln(tw, strings.Repeat("---\t", len(cols)))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// writeRows renders rows in the output format selected on cmd.
func writeRows(cmd *cobra.Command, cols []string, rows [][]string) error {
	w := cmd.OutOrStdout()
	if outputFormat(cmd) == "csv" {
		return writeCSV(w, cols, rows)
	}
	return writeTable(w, cols, rows)
}
