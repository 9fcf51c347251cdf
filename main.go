package main

import (
	"fmt"
	"os"

	"github.com/khabaroff/lms-admin/src/cli"
)

// Set via -ldflags at build time
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
