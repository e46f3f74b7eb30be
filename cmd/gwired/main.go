package main

import "graphwire/cmd/gwired/cmd"

func main() {
	cmd.Execute()
}
