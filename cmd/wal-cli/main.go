package main

import "github.com/backbone81/region-wal/cmd/wal-cli/cmd"

func main() {
	cmd.Execute()
}
