// Command recfilter compiles record filters to SQL and runs them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/recfilter/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "recfilter: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
