// Command chat is the terminal client for the Retrend message store.
package main

import (
	"fmt"
	"os"

	"github.com/retrend/chat/internal/cli"
)

// Version info, set at build time.
var (
	version = "dev"
)

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
