// Package main is the entry point for the sandbox CLI.
package main

import (
	"os"

	"github.com/mrz1836/phantom-sandbox/internal/cli"
)

// Stamped at link time with -ldflags "-X main.version=...".
//
//nolint:gochecknoglobals // linker-stamped build metadata
var (
	version string
	commit  string
	date    string
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
