package main

import (
	"fmt"
	"os"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "calcora: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
