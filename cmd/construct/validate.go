package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/construct/config"
	"github.com/artpar/construct/core/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|dir...]",
	Short: "Validate runtime declarations or the configuration",
	Long: `Validate runtime declarations without printing artifacts.

Each file is fully assembled; every problem found is reported. A directory
argument validates every .runtime file in it. Without arguments the
configuration file is validated instead.

Examples:
  construct validate node.runtime
  construct validate runtimes/
  construct validate --config /etc/construct/construct.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return validateConfig(cmd)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// History is not recorded for validation.
	cfg.Storage.Enabled = false

	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	paths, err := declarationPaths(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range paths {
		res, err := a.Compiler.CompileFile(cmd.Context(), path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  %s %s\n", crossMark, path)
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
			continue
		}
		fmt.Fprintf(out, "  %s %s (runtime %s, %d modules)\n",
			checkMark, path, res.Table.Runtime(), res.Table.Len())
	}

	if failed > 0 {
		fmt.Fprintf(out, "\n%d of %d declarations invalid\n", failed, len(paths))
		return errReported
	}
	return nil
}

// declarationPaths expands directory arguments into their declaration files.
func declarationPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := schema.FindFiles(arg)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no %s files in %s", schema.FileExtension, arg)
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

func validateConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Output: %s\n", checkMark, cfg.Output.Format)
	fmt.Fprintf(out, "  %s Compiler parallelism: %d\n", checkMark, cfg.Compiler.Parallelism)
	if cfg.Storage.Enabled {
		fmt.Fprintf(out, "  %s Build history: %s\n", checkMark, cfg.Storage.DSN)
	} else {
		fmt.Fprintf(out, "  %s Build history: disabled\n", checkMark)
	}
	fmt.Fprintf(out, "  %s Server: %s\n", checkMark, cfg.Server.Addr())
	return nil
}
