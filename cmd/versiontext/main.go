package main

import (
	"os"

	"github.com/ariel-frischer/versiontext/internal/cli"
	"github.com/ariel-frischer/versiontext/internal/cli/shared"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(shared.ExitCode(err))
	}
}
