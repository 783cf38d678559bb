// Command bayesq evaluates probability queries over tabular datasets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bayesq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
