package cmd

import (
	"context"
	"fmt"

	"graphwire/cli"

	"github.com/spf13/cobra"
)

var delCmd = &cobra.Command{
	Use:   "del <key>",
	Short: "Deletes a value.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cli.DialRPC(cmd, engine)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(delCmd)
}
