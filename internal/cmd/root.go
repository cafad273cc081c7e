package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/sparcli"
	"github.com/Iron-Ham/sparcli/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "sparcli",
	Short: "Live terminal sparklines",
	Long: `Sparcli draws live sparklines of numeric values at the bottom of the
terminal while ordinary output keeps scrolling above them.

Feed it numbers on stdin, point it at growing files, or run the demo.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/sparcli/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, dir := range config.SearchPaths() {
			viper.AddConfigPath(dir)
		}
	}

	// e.g., SPARCLI_DISPLAY_SERIES_SIZE for display.series_size
	config.BindEnv(viper.GetViper())

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// openSession loads the configuration and starts a chart on the real
// terminal.
func openSession() (*sparcli.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s, err := sparcli.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start chart: %w", err)
	}
	return s, nil
}

// closeSession closes s, reporting its error through errp unless the
// command already failed.
func closeSession(s *sparcli.Session, errp *error) {
	if err := s.Close(); err != nil {
		if *errp == nil {
			*errp = err
		} else {
			fmt.Fprintf(os.Stderr, "sparcli: %v\n", err)
		}
	}
}
