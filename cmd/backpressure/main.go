// Command backpressure runs the incremental pipeline simulator.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/backpressure/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
