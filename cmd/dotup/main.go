// Package main is the entry point for the dotup CLI application.
package main

import (
	"github.com/dbmrq/dotup/cmd/dotup/cmd"
)

// Version information - set by build flags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Date = date
	cmd.Execute()
}
