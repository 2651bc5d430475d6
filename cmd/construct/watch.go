package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/construct/core/compiler"
	"github.com/artpar/construct/core/formatter"
)

var watchOnly []string

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Reassemble a declaration whenever it changes",
	Long: `Assemble a declaration, then assemble it again every time the file is
saved. Errors are printed and watching continues. Stop with Ctrl-C.

Examples:
  construct watch node.runtime
  construct watch node.runtime --only metadata -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSliceVar(&watchOnly, "only", nil, "limit output to the named artifacts")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	opts := formatter.FormatOptions{Only: watchOnly, Compact: cfg.Output.Compact}

	return a.Compiler.Watch(cmd.Context(), args[0], func(res *compiler.Result, err error) {
		if err != nil {
			f.FormatError(errOut, err)
			return
		}
		if err := f.FormatBundle(out, res.Bundle, opts); err != nil {
			fmt.Fprintf(errOut, "write artifacts: %v\n", err)
		}
	})
}
