package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/config"
)

const masked = "********"

// NewCmd builds the config command group
func NewCmd(a *app.App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `View and modify CLI configuration settings.

Configuration is stored in ~/.helpdesk/config.yaml unless --config or
HELPDESK_HOME points elsewhere.

Examples:
  # Initialize configuration
  helpdesk config init

  # View current configuration
  helpdesk config view

  # Set a configuration value
  helpdesk config set api_url https://desk.example.com/api

  # Get a configuration value
  helpdesk config get api_url`,
	}

	configCmd.AddCommand(newInitCmd(a))
	configCmd.AddCommand(newViewCmd(a))
	configCmd.AddCommand(newSetCmd(a))
	configCmd.AddCommand(newGetCmd(a))
	return configCmd
}

// path returns the file config commands write to
func path(a *app.App) (string, error) {
	if a.ConfigFile != "" {
		return a.ConfigFile, nil
	}
	if used := a.Viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func newInitCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI configuration",
		Long: `Initialize the CLI configuration file with the default settings.

This will create ~/.helpdesk/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			file, err := path(a)
			if err != nil {
				return err
			}

			// Check if config already exists
			if _, err := os.Stat(file); err == nil && !force {
				fmt.Fprintf(a.Err, "Configuration already exists at %s\n", file)
				if !a.Confirm("Overwrite?") {
					fmt.Fprintln(a.Err, "Cancelled")
					return nil
				}
			}

			if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
				return fmt.Errorf("error creating config directory: %w", err)
			}

			v := viper.New()
			config.SetDefaults(v)
			v.SetConfigType("yaml")
			if err := v.WriteConfigAs(file); err != nil {
				return fmt.Errorf("error writing config file: %w", err)
			}
			if err := os.Chmod(file, 0o600); err != nil {
				return fmt.Errorf("error securing config file: %w", err)
			}

			fmt.Fprintf(a.Out, "Configuration initialized at %s\n", file)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing file without asking")
	return cmd
}

func newViewCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:     "view",
		Aliases: []string{"show"},
		Short:   "View current configuration",
		Long: `View the effective configuration: defaults, the config file,
.env files, HELPDESK_* environment variables and flags combined.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := a.Viper.AllKeys()
			sort.Strings(keys)

			settings := make(map[string]any, len(keys))
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				value := a.Viper.Get(key)
				if secret(key) && a.Viper.GetString(key) != "" {
					value = masked
				}
				settings[key] = value
				rows = append(rows, []string{key, fmt.Sprint(value)})
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(settings)
			}
			if used := a.Viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(a.Out, "Config file: %s\n\n", used)
			}
			return p.Table([]string{"KEY", "VALUE"}, rows)
		},
	}
}

func newSetCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Examples:
  helpdesk config set api_url https://desk.example.com/api
  helpdesk config set output json
  helpdesk config set session.backend redis`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if !known(a.Viper, key) {
				return fmt.Errorf("unknown configuration key %q", key)
			}
			file, err := path(a)
			if err != nil {
				return err
			}

			// Only the file's own settings are rewritten, never env or flag overrides
			v := viper.New()
			v.SetConfigFile(file)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("error reading config file: %w", err)
			}
			v.Set(key, value)

			check := viper.New()
			config.SetDefaults(check)
			if err := check.MergeConfigMap(v.AllSettings()); err != nil {
				return err
			}
			var cfg config.Config
			if err := check.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
				return fmt.Errorf("error creating config directory: %w", err)
			}
			if err := v.WriteConfigAs(file); err != nil {
				return fmt.Errorf("error writing config: %w", err)
			}

			if secret(key) {
				value = masked
			}
			fmt.Fprintf(a.Out, "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func newGetCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !known(a.Viper, key) {
				return fmt.Errorf("unknown configuration key %q", key)
			}
			value := a.Viper.Get(key)
			if secret(key) && a.Viper.GetString(key) != "" {
				value = masked
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(map[string]any{key: value})
			}
			fmt.Fprintf(a.Out, "%s = %v\n", key, value)
			return nil
		},
	}
}

func known(v *viper.Viper, key string) bool {
	for _, k := range v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func secret(key string) bool {
	return key == "session.redis.password"
}
