// Command uask compiles CUE surveys and runs their rules over participant
// interview histories.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/u-ask/uask-dom-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands print their own errors; cobra flag errors are not.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
