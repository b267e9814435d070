package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Long: `Print build information for this binary.

For the model library and runtime versions use --action version.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintf(stdout, "latexocr %s (commit: %s, built: %s, %s)\n", version, commit, date, runtime.Version())
			return nil
		},
	}
}
