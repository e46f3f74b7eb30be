package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"graphwire/cli"

	"github.com/spf13/cobra"
)

const flagRaw = "raw"

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Fetches and prints a value.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cli.DialRPC(cmd, engine)
		if err != nil {
			return err
		}
		defer client.Close()

		if raw, _ := cmd.Flags().GetBool(flagRaw); raw {
			payload, err := client.GetRaw(context.Background(), args[0])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(payload)
			return err
		}

		value, err := client.Get(context.Background(), args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString(cli.FlagFormat)
		if format == "json" {
			return json.NewEncoder(os.Stdout).Encode(value)
		}
		switch v := value.(type) {
		case []byte:
			_, err = os.Stdout.Write(v)
			return err
		case string:
			fmt.Println(v)
		default:
			fmt.Printf("%+v\n", v)
		}
		return nil
	},
}

func init() {
	getCmd.Flags().Bool(flagRaw, false, "Write the encoded payload to stdout without decoding it.")
	rootCmd.AddCommand(getCmd)
}
