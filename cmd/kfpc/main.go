// Command kfpc compiles the babyweight pipeline into a workflow archive.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kfpc: %v\n", err)
		os.Exit(1)
	}
}
