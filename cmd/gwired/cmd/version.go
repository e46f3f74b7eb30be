package cmd

import (
	"fmt"

	"graphwire/version"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the daemon's version.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("gwired %s (%s)\n", version.GitTag, version.GitCommit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
