package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/construct/config"
)

var (
	hotReload bool
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP compile API",
	Long: `Start the construct HTTP server.

The server will:
  - Load configuration from construct.yaml (or --config)
  - Or load configuration from CONSTRUCT_* environment variables
  - Open the build history database when storage is enabled
  - Serve POST /compile, POST /normalize and GET /builds

Environment variables:
  CONSTRUCT_SERVER_HOST       - Listen host (default: 127.0.0.1)
  CONSTRUCT_SERVER_PORT       - Listen port (default: 8420)
  CONSTRUCT_STORAGE_ENABLED   - Record builds (default: false)
  CONSTRUCT_STORAGE_DSN       - Database path (default: construct.db)
  CONSTRUCT_METRICS_ENABLED   - Serve Prometheus metrics
  CONSTRUCT_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  construct serve
  construct serve --port 9000
  construct serve --config /etc/construct/construct.yaml --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "override server host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}

	if !hasConfigFile {
		a.Logger.Info().Msg("running with environment variables (no config file)")
	}

	// Hot reload only works with a config file
	if hasConfigFile && hotReload {
		holder, err := config.NewHolder(cfgFile, a.Logger)
		if err != nil {
			a.Shutdown()
			return fmt.Errorf("error loading config: %w", err)
		}
		defer holder.Stop()

		a.WatchConfig(holder)
		if err := holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		holder.WatchSignals()
	}

	// Run (blocks until shutdown)
	return a.Run(cmd.Context())
}
