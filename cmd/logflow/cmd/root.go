package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/pkg/core/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "logflow",
	Short: "logflow - structured logging pipeline",
	Long: `logflow sends log records through a configured pipeline and
receives remote batches for inspection.

Commands:
  send      - Log messages through the configured sinks
  serve     - Run an ingest receiver for remote batches
  validate  - Check a configuration file
  version   - Show version information`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: $"+config.EnvConfigPath+" or ./configs/logflow.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// loadConfig loads --config, else the environment or default locations.
// Without any config file the console-only default is used.
func loadConfig() (*config.File, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg, err := config.LoadFromEnv()
	if lferror.HasCode(err, lferror.CodeNotFound) && os.Getenv(config.EnvConfigPath) == "" {
		return config.Default(), nil
	}
	return cfg, err
}

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E"))
)

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", errStyle.Render("Error:"), msg, err)
}
