package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/sparcli/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View sparcli configuration",
	Long: `View sparcli configuration.

Without arguments, displays the effective configuration.
Use subcommands to create a config file or see where it is read from.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/sparcli/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// defaultConfigContent is written by "config init". It must decode to
// config.Default().
const defaultConfigContent = `# Sparcli Configuration

display:
  # How long to wait for new samples before redrawing anyway
  poll_interval: 100ms
  # Points kept per variable; must be a positive multiple of 2.
  # When full, neighbouring points are averaged and the series halves.
  series_size: 30
  # Stop averaging after this many halvings and drop the oldest point
  # instead (0 = never stop)
  max_scale: 0
  # Truncate variable names longer than this (0 = never)
  max_name_width: 24
  bold_names: true

# How stdout and stderr are intercepted
# Options: auto (pipe when attached to a terminal), pipe, none
capture:
  stdout: auto
  stderr: auto

logging:
  enabled: false
  # Options: debug, info, warn, error
  level: info
  # Directory for sparcli.log; empty logs to stderr above the chart
  dir: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()
	force, _ := cmd.Flags().GetBool("force")

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf("config file already exists at %s\nUse --force to overwrite it", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize sparcli's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	for i, dir := range config.SearchPaths() {
		fmt.Fprintf(out, "  %d. %s\n", i+1, filepath.Join(dir, "config.yaml"))
	}
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_DISPLAY_SERIES_SIZE)\n", config.EnvPrefix, config.EnvPrefix)

	return nil
}
