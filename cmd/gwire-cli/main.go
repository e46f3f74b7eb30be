package main

import "graphwire/cmd/gwire-cli/cmd"

func main() {
	cmd.Execute()
}
