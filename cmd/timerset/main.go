package main

import (
	"os"

	"github.com/wesleyorama2/timerset/internal/cli"
)

// Main runs the timerset CLI against os.Args and returns the exit code.
func Main() int {
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
