package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/allyourbase/dialplan/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print resolved configuration",
	Long: `Load and print the resolved dialplan configuration as TOML.
Shows the result of merging defaults, dialplan.toml, .env, environment variables, and flags.`,
	RunE: runConfig,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long: `Get a specific configuration value by dotted key path.
Examples: server.port, engine.default_region, logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in dialplan.toml",
	Long: `Set a configuration value in the dialplan.toml config file.
Creates the file if it doesn't exist.
Examples:
  dialplan config set server.port 9000
  dialplan config set engine.default_region GB
  dialplan config set server.cors_allowed_origins https://a.example,https://b.example`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default dialplan.toml",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}

func configFile(cmd *cobra.Command) string {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		return config.DefaultFile
	}
	return configPath
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}

	out, err := cfg.ToTOML()
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	value, err := config.GetValue(cfg, args[0])
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"key": args[0], "value": value})
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	configPath := configFile(cmd)
	key := args[0]
	value := args[1]

	if !config.IsValidKey(key) {
		return withHints(fmt.Errorf("unknown configuration key: %s", key), "dialplan config   # list every key")
	}

	if err := config.SetValue(configPath, key, value); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s = %s\n", key, value)
	fmt.Fprintf(w, "Written to %s\n", configPath)

	// Values may be set one at a time, so an invalid result only warns.
	if _, err := config.Load(configPath, nil); err != nil {
		msg := err.Error()
		if _, rest, ok := strings.Cut(msg, ": "); ok {
			msg = rest
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s\n", msg)
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile(cmd)
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(configPath); err == nil && !force {
		return withHints(fmt.Errorf("%s already exists", configPath), "dialplan config init --force")
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", configPath, err)
	}

	if err := config.GenerateDefault(configPath); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
	return nil
}
