package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/librarydesk/internal/cli"
	"github.com/mrlokans/librarydesk/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	root := cli.NewRootCommand(fmt.Sprintf("%s (%s)", Version, Commit), config.NewConfig)

	// No command given means serve
	if len(os.Args) < 2 {
		root.SetArgs([]string{"serve"})
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
