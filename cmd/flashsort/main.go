// Command flashsort drives the external sort engine from the shell: sort an
// existing page-formatted file, generate synthetic benchmark datasets, or
// verify a sort's output.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "flashsort",
		Usage: "external sort for page-formatted flash storage datasets",
		Commands: []*cli.Command{
			newSortCmd(),
			newBenchCmd(),
			newVerifyCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "flashsort:", err)
		os.Exit(1)
	}
}
