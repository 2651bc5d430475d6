package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/formatter"
)

var (
	compileOut     string
	compileDir     string
	compileCompact bool
	compileOnly    []string
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Assemble a runtime declaration into its artifacts",
	Long: `Assemble a construct_runtime! declaration and print the generated artifacts.

Use "-" to read the declaration from standard input. When build history is
enabled (storage.enabled), every new module table is recorded; recompiling an
identical table reuses the stored build.

Artifacts:
  event, origin, modules, call, metadata, genesis, inherent, validate_unsigned

Examples:
  construct compile node.runtime
  construct compile node.runtime --only event,call -f yaml
  construct compile node.runtime --dir out/ -f json
  cat node.runtime | construct compile -`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOut, "out", "o", "", "write artifacts to a file instead of stdout")
	compileCmd.Flags().StringVar(&compileDir, "dir", "", "write one file per artifact into a directory")
	compileCmd.Flags().BoolVar(&compileCompact, "compact", false, "single-line JSON output")
	compileCmd.Flags().StringSliceVar(&compileOnly, "only", nil, "limit output to the named artifacts")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if compileCompact {
		cfg.Output.Compact = true
	}
	if compileDir != "" {
		cfg.Output.Dir = compileDir
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

	res, err := a.Builds.Compile(cmd.Context(), src, source)
	if err != nil {
		return reportError(cmd, f, err)
	}
	if res.Build.ID != "" {
		a.Logger.Info().
			Str("build_id", res.Build.ID).
			Bool("cached", res.Cached).
			Msg("build recorded")
	}

	opts := formatter.FormatOptions{Only: compileOnly, Compact: cfg.Output.Compact}
	if cfg.Output.Dir != "" {
		return writeArtifacts(cmd.OutOrStdout(), f, res.Bundle, cfg.Output.Dir, opts)
	}

	var w io.Writer = cmd.OutOrStdout()
	if compileOut != "" {
		file, err := os.Create(compileOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := f.FormatBundle(w, res.Bundle, opts); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}
	return nil
}

// writeArtifacts writes each selected artifact to <dir>/<name>.<ext>.
func writeArtifacts(out io.Writer, f formatter.Formatter, b *artifact.Bundle, dir string, opts formatter.FormatOptions) error {
	names := opts.Only
	if len(names) == 0 {
		names = artifact.Names
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, name := range names {
		path := filepath.Join(dir, name+artifactExt(f.Name()))
		if err := writeArtifact(path, f, b, name, opts); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", checkMark, path)
	}
	return nil
}

func writeArtifact(path string, f formatter.Formatter, b *artifact.Bundle, name string, opts formatter.FormatOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	opts.Only = []string{name}
	if err := f.FormatBundle(file, b, opts); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func artifactExt(format string) string {
	switch format {
	case "json":
		return ".json"
	case "yaml":
		return ".yaml"
	default:
		return ".txt"
	}
}
