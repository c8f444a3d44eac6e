// Package main is the micgen command itself.
package main

import (
	"os"

	"github.com/m5audio/micgen/cli"
	"github.com/m5audio/micgen/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	err := app.Run(os.Args)
	//nolint:errcheck
	logging.Global().Sync()
	if err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
