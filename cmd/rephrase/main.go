// CLI entry point for the Rephrase slot mapper.
package main

import (
	"os"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	os.Exit(cli.Execute())
}

//Personal.AI order the ending
