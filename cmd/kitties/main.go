// Package main is the entry point for the kitties registry CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/kitties/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kitties:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
