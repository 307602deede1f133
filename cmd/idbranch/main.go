// Package main implements the idbranch CLI.
// It reports OpenCL loops whose exit condition depends on a work-item
// identifier query, in the manner of clang-tidy's
// altera-id-dependent-backward-branch check.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/l3aro/idbranch/cmd/idbranch/commands"
	"github.com/l3aro/idbranch/internal/log"
	"github.com/l3aro/idbranch/pkg/lint"
)

var (
	version   = "dev"
	buildTime = ""
)

// Exit codes.
const (
	exitWarnings = 1
	exitError    = 2
)

func main() {
	commands.RootCmd.Flags().BoolP("version", "V", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`idbranch version {{.Version}}
`)
	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (" + buildTime + ")"
	}

	err := commands.Execute()
	_ = log.Default().Sync()
	if err != nil {
		if errors.Is(err, lint.ErrWarnings) {
			os.Exit(exitWarnings)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitError)
	}
}
