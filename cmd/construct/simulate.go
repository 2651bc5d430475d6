package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/construct/core/runtime"
)

var simulateBlocks int

var simulateCmd = &cobra.Command{
	Use:   "simulate <file>",
	Short: "Dry-run an assembled runtime with stand-in modules",
	Long: `Assemble a declaration and execute it with a stand-in implementation bound
to every module.

The run builds genesis, produces and executes blocks carrying the inherents
of every provider and asks the unsigned validators about each call variant.
Stand-ins implement every hook, so the report shows the dispatch wiring the
declaration produces. A block that fails to execute makes the command fail.

Examples:
  construct simulate node.runtime
  construct simulate node.runtime --blocks 10 -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simulateBlocks, "blocks", runtime.DefaultSimulatedBlocks, "number of blocks to execute")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// History is not recorded for simulation.
	cfg.Storage.Enabled = false

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
	res, err := a.Compiler.Compile(cmd.Context(), src, source)
	if err != nil {
		return reportError(cmd, f, err)
	}

	report, err := runtime.Simulate(cmd.Context(), res.Bundle, runtime.SimulateOptions{
		Blocks: simulateBlocks,
		Config: runtime.Config{Logger: a.Logger},
	})
	if err != nil {
		return reportError(cmd, f, err)
	}

	out := cmd.OutOrStdout()
	switch cfg.Output.Format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case "yaml":
		err = yaml.NewEncoder(out).Encode(report)
	default:
		printSimulation(out, report)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if report.Failed() {
		return errReported
	}
	return nil
}

func printSimulation(out io.Writer, r *runtime.SimulationReport) {
	fmt.Fprintf(out, "Runtime %s\n\n", r.Runtime)
	fmt.Fprintf(out, "Hook order:   %s\n", strings.Join(r.HookOrder, ", "))
	fmt.Fprintf(out, "Genesis keys: %s\n\n", strings.Join(r.GenesisKeys, ", "))

	for _, b := range r.Blocks {
		if b.Error != "" {
			fmt.Fprintf(out, "  %s block #%d: %s\n", crossMark, b.Number, b.Error)
			continue
		}
		fmt.Fprintf(out, "  %s block #%d (%d inherents, %d hooks)\n",
			checkMark, b.Number, len(b.Extrinsics), len(b.Hooks))
		for _, xt := range b.Extrinsics {
			fmt.Fprintf(out, "      %s\n", xt)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Unsigned calls:")
	for _, u := range r.Unsigned {
		switch {
		case u.Module != "":
			fmt.Fprintf(out, "  %-16s %s (%s)\n", u.Call, u.Outcome, u.Module)
		case u.Reason != "":
			fmt.Fprintf(out, "  %-16s %s: %s\n", u.Call, u.Outcome, u.Reason)
		default:
			fmt.Fprintf(out, "  %-16s %s\n", u.Call, u.Outcome)
		}
	}
}
