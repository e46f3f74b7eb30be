package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"graphwire/cli"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys [prefix]",
	Short: "Lists stored keys.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var prefix string
		if len(args) == 1 {
			prefix = args[0]
		}

		client, err := cli.DialRPC(cmd, engine)
		if err != nil {
			return err
		}
		defer client.Close()

		keys, err := client.Keys(context.Background(), prefix)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString(cli.FlagFormat)
		if format == "json" {
			return json.NewEncoder(os.Stdout).Encode(keys)
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
