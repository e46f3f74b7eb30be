package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"graphwire/cli"
	"graphwire/gwire"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type traceJSON struct {
	Offset uint64 `json:"offset"`
	Depth  int    `json:"depth"`
	Tag    byte   `json:"tag"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file|->",
	Short: "Prints the manifests of an encoded stream. Does not contact the daemon.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "error opening stream")
			}
			defer f.Close()
			r = f
		}

		entries, traceErr := engine.Trace(r)

		format, _ := cmd.Flags().GetString(cli.FlagFormat)
		if format == "json" {
			encoder := json.NewEncoder(os.Stdout)
			for _, e := range entries {
				if err := encoder.Encode(&traceJSON{
					Offset: e.Offset,
					Depth:  e.Depth,
					Tag:    e.Tag,
					Kind:   gwire.TagName(e.Tag),
					Detail: e.Detail,
				}); err != nil {
					return err
				}
			}
		} else {
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Offset", "Tag", "Kind", "Detail"})
			table.SetAutoWrapText(false)
			for _, e := range entries {
				table.Append([]string{
					fmt.Sprintf("%08x", e.Offset),
					strconv.Itoa(int(e.Tag)),
					strings.Repeat("  ", e.Depth) + gwire.TagName(e.Tag),
					e.Detail,
				})
			}
			table.Render()
			fmt.Println("")
			fmt.Printf("Total: %d\n", len(entries))
		}

		if traceErr != nil {
			return errors.Wrap(traceErr, "stream ended early")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
