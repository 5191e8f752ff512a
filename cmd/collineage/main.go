// Package main provides the CLI entry point for collineage.
package main

import (
	"os"

	"github.com/leapstack-labs/collineage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
