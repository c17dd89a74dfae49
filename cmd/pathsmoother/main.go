// Package main is the pathsmoother command.
package main

import (
	"fmt"
	"os"

	"go.viam.com/pathsmoother/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
