package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"graphwire/cli"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const flagBytes = "bytes"

var putCmd = &cobra.Command{
	Use:   "put <key> [value]",
	Short: "Stores a value. Reads the value from stdin when it is omitted.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		if len(args) == 2 {
			data = []byte(args[1])
		} else {
			if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
				return errors.New("no value given and stdin is a terminal")
			}
			in, err := io.ReadAll(os.Stdin)
			if err != nil {
				return errors.Wrap(err, "error reading stdin")
			}
			data = in
		}

		var value interface{} = string(data)
		if asBytes, _ := cmd.Flags().GetBool(flagBytes); asBytes {
			value = data
		}

		client, err := cli.DialRPC(cmd, engine)
		if err != nil {
			return err
		}
		defer client.Close()

		res, err := client.Put(context.Background(), args[0], value)
		if err != nil {
			return err
		}
		fmt.Printf("Stored %s (%d bytes, blake2b %s).\n", args[0], res.Size, res.Checksum)
		return nil
	},
}

func init() {
	putCmd.Flags().Bool(flagBytes, false, "Store the value as a byte buffer instead of a string.")
	rootCmd.AddCommand(putCmd)
}
