// Command timberwolf runs layered game loops and inspects recorded runs.
package main

import (
	"os"

	"github.com/roach88/timberwolf/internal/cli"
)

func main() {
	// Subcommands print their own errors; cobra prints flag and usage errors.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
