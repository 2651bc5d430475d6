package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/construct/core/formatter"
)

var normalizeCanonical bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Print the normalized module table of a declaration",
	Long: `Parse a declaration and print its module table with every module's
capabilities resolved, without generating artifacts.

With --canonical the table is printed in the canonical declaration form that
build fingerprints are computed from.

Examples:
  construct normalize node.runtime
  construct normalize node.runtime --canonical`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().BoolVar(&normalizeCanonical, "canonical", false, "print the canonical declaration form")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := outputFormatter(cfg)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	src, source, err := readDeclaration(cmd, args[0])
	if err != nil {
		return err
	}

	t, err := a.Builds.Normalize(src, source)
	if err != nil {
		return reportError(cmd, f, err)
	}

	if normalizeCanonical {
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	}
	return f.FormatTable(cmd.OutOrStdout(), t, formatter.FormatOptions{Compact: cfg.Output.Compact})
}
