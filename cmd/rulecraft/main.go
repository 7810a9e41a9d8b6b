// Package main provides the rulecraft CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/rulecraft/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
