package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/logflow/pkg/core/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Checks a configuration file",
	Long: `Loads a TOML or YAML configuration file, applies defaults and
reports whether it is valid. Unknown keys are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(args[0])
	if err != nil {
		fmt.Fprintf(out, "%s %s\n  %v\n", errStyle.Render("✗"), args[0], err)
		return err
	}

	fmt.Fprintf(out, "%s %s\n", okStyle.Render("✓"), args[0])
	fmt.Fprintf(out, "  %s %s\n", labelStyle.Render("logger:   "), cfg.Logger.Name)
	fmt.Fprintf(out, "  %s %s\n", labelStyle.Render("min level:"), orDefault(cfg.Logger.MinLevel, "lowest"))

	sinks := cfg.EnabledSinks()
	if len(sinks) == 0 {
		sinks = []string{"none"}
	}
	fmt.Fprintf(out, "  %s %s\n", labelStyle.Render("sinks:    "), strings.Join(sinks, ", "))

	if rl := cfg.Logger.RateLimit; rl != nil && rl.Enabled {
		fmt.Fprintf(out, "  %s %d per %s\n", labelStyle.Render("rate limit:"), rl.MaxLogs, rl.Interval.Duration)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
