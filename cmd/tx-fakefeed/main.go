package main

import "github.com/balaghali/N26Statistics/cmd/tx-fakefeed/cmd"

func main() {
	cmd.Execute()
}
