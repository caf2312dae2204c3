// Command toth orchestrates reproducible analysis projects: data tracking
// with dvc, version control with git, and a decision log.
package main

import (
	"os"

	"github.com/NielsdaWheelz/toth/internal/cli"
	"github.com/NielsdaWheelz/toth/internal/errors"
)

func main() {
	err := cli.Run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
