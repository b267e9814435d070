package main

import (
	"github.com/spf13/cobra"

	"github.com/julianknutsen/latexocr/internal/config"
)

// registerCompletions adds shell completion for enumerated flag values.
func registerCompletions(root *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	_ = root.RegisterFlagCompletionFunc("action", fixed(actions...))
	_ = root.RegisterFlagCompletionFunc("output_format", fixed(formatJSON, formatPlain))
	_ = root.RegisterFlagCompletionFunc("backend", fixed(config.Backends...))
	_ = root.RegisterFlagCompletionFunc("log-level", fixed("debug", "info", "warn", "error"))
	_ = root.RegisterFlagCompletionFunc("color", fixed("always", "auto", "never"))
}
