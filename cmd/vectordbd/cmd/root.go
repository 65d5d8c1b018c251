// Package cmd provides the CLI commands for vectordbd.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cerplabs/vectordb/pkg/version"
)

// NewRootCmd creates the root command for the vectordbd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vectordbd",
		Short:   "In-memory vector database server",
		Long:    "vectordbd serves a library/document/chunk vector store over HTTP, with pluggable nearest-neighbor indices and JSON snapshot persistence.",
		Version: version.Version,
	}
	cmd.SetVersionTemplate("vectordbd version {{.Version}}\n")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
