// Package main is the entry point for the mcfly CLI.
package main

import (
	"os"

	"github.com/mcflyhq/contextrank/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
