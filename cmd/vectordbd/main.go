// Package main provides the entry point for the vectordbd server.
package main

import (
	"os"

	"github.com/cerplabs/vectordb/cmd/vectordbd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
