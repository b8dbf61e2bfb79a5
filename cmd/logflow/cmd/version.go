package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/logflow/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Shows version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "logflow v%s\n", version.CLI)
		fmt.Fprintf(out, "  Library:     %s\n", version.Library)
		fmt.Fprintf(out, "  Wire Format: %s\n", version.WireFormat)
		fmt.Fprintf(out, "  Git Commit:  %s\n", version.GitCommit)
		fmt.Fprintf(out, "  Build Date:  %s\n", version.BuildDate)
		fmt.Fprintf(out, "  Go Version:  %s\n", runtime.Version())
		fmt.Fprintf(out, "  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
