package cmd

import (
	"fmt"
	"os"

	"graphwire/cli"
	"graphwire/gwire"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gwire-cli",
	Short: "Command-line RPC interface for gwired.",
}

// engine encodes and decodes values on the client side.
var engine = gwire.MustNewEngine(gwire.Options{
	PreserveObjectReferences: true,
	VersionTolerance:         true,
})

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Int(cli.FlagRPCPort, 9199, "RPC port to connect to.")
	rootCmd.PersistentFlags().String(cli.FlagRPCHost, "127.0.0.1", "RPC host to connect to.")
	rootCmd.PersistentFlags().String(cli.FlagFormat, "text", "Output format")
}
