package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artpar/construct/bootstrap"
	"github.com/artpar/construct/config"
	"github.com/artpar/construct/core/formatter"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	outFormat string
)

// errReported is returned once a command has printed its own failure.
var errReported = errors.New("construct: error reported")

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "construct",
	Short: "Assemble blockchain runtimes from construct_runtime! declarations",
	Long: `construct assembles a runtime from a construct_runtime! declaration.

It parses the declaration, binds every module and generates the runtime
artifacts: the event and origin unions, the genesis configuration, the call
dispatcher, metadata, the module set and the inherent and unsigned
validation dispatchers.

Quick start:
  construct compile node.runtime          # Print all artifacts
  construct compile node.runtime -f json  # As JSON
  construct validate node.runtime         # Check a declaration
  construct simulate node.runtime         # Dry-run with stand-in modules
  construct serve                         # Start the HTTP API

History:
  construct builds list                   # Stored builds (storage.enabled)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "construct.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "format", "f", "", "output format: "+strings.Join(formatter.List(), ", "))
}

// loadConfig loads the config file, or CONSTRUCT_* variables when it does
// not exist, and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if outFormat != "" {
		cfg.Output.Format = outFormat
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, cfg *config.Config) (*bootstrap.App, error) {
	a, err := bootstrap.New(cfg, bootstrap.Options{
		LogOutput: cmd.ErrOrStderr(),
		Version:   version,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing: %w", err)
	}
	return a, nil
}

func outputFormatter(cfg *config.Config) (formatter.Formatter, error) {
	f, ok := formatter.Get(cfg.Output.Format)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)",
			cfg.Output.Format, strings.Join(formatter.List(), ", "))
	}
	return f, nil
}

// readDeclaration reads a declaration file, or standard input for "-".
func readDeclaration(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return src, "stdin", nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read declaration: %w", err)
	}
	return src, filepath.Base(path), nil
}

// reportError prints an assembly failure in the output format.
func reportError(cmd *cobra.Command, f formatter.Formatter, err error) error {
	f.FormatError(cmd.ErrOrStderr(), err)
	return errReported
}
