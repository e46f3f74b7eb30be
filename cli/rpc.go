package cli

import (
	"net"
	"strconv"

	"graphwire/gwire"
	"graphwire/rpc"

	"github.com/spf13/cobra"
)

func DialRPC(cmd *cobra.Command, engine *gwire.Engine) (*rpc.Client, error) {
	rpcHost, _ := cmd.Flags().GetString(FlagRPCHost)
	rpcPort, _ := cmd.Flags().GetInt(FlagRPCPort)
	return rpc.Dial(net.JoinHostPort(rpcHost, strconv.Itoa(rpcPort)), engine)
}
