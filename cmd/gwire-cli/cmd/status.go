package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"graphwire/cli"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type statusJSON struct {
	Version     string `json:"version"`
	Objects     int64  `json:"objects"`
	Cached      int64  `json:"cached"`
	Compression string `json:"compression"`
	InFlight    int64  `json:"in_flight"`
	LockedKeys  int64  `json:"locked_keys"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Returns the daemon's status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cli.DialRPC(cmd, engine)
		if err != nil {
			return err
		}
		defer client.Close()

		res, err := client.Status(context.Background())
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString(cli.FlagFormat)
		if format == "json" {
			return json.NewEncoder(os.Stdout).Encode(&statusJSON{
				Version:     res.Version,
				Objects:     res.Objects,
				Cached:      res.Cached,
				Compression: res.Compression,
				InFlight:    res.InFlight,
				LockedKeys:  res.LockedKeys,
			})
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Field", "Value"})
		table.AppendBulk([][]string{
			{"Version", res.Version},
			{"Objects", strconv.FormatInt(res.Objects, 10)},
			{"Cached", strconv.FormatInt(res.Cached, 10)},
			{"Compression", res.Compression},
			{"In Flight", strconv.FormatInt(res.InFlight, 10)},
			{"Locked Keys", strconv.FormatInt(res.LockedKeys, 10)},
		})
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
