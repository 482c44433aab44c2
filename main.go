package main

import (
	"os"

	"github.com/transitlab/busopt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
