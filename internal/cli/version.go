package cmd

import (
	"fmt"

	"github.com/rohmanhakim/newsletter-triage/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.Summary())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
