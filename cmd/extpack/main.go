// Package main is the entry point for the extpack CLI.
//
// extpack compiles, lints and packages the editor extension in the current
// directory and can install the result through the editor's CLI. All
// functionality lives in the internal/cli package.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development they default to "dev", "none", and "unknown".
package main

import (
	"github.com/mmr-tortoise/extpack/internal/cli"
)

// version, commit, and date are set at build time via ldflags and shown in
// the help text.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Zero Dependencies select the real runner, filesystem and streams.
	rootCmd := cli.NewRootCommand(cli.Dependencies{})
	cli.Execute(rootCmd)
}
