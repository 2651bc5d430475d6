// Package bootstrap wires all dependencies and starts the application.
// The CLI and the HTTP server share one App built from a loaded Config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/construct/adapters/clock"
	"github.com/artpar/construct/adapters/hasher"
	apihttp "github.com/artpar/construct/adapters/http"
	"github.com/artpar/construct/adapters/idgen"
	"github.com/artpar/construct/adapters/metrics"
	"github.com/artpar/construct/app"
	"github.com/artpar/construct/config"
	"github.com/artpar/construct/core/compiler"
	"github.com/artpar/construct/core/events"
	"github.com/artpar/construct/core/storage"
)

// BuildIDPrefix prefixes generated build IDs.
const BuildIDPrefix = "bld_"

// ShutdownTimeout bounds graceful server shutdown.
const ShutdownTimeout = 30 * time.Second

// App represents the running application.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Bus      *events.Bus
	Metrics  *metrics.Collector
	Store    *storage.SQLiteStore
	Compiler *compiler.Compiler
	Builds   *app.BuildService

	// HTTPServer is created by NewServer.
	HTTPServer *http.Server

	metricsHandler http.Handler
	version        string
}

// Options provides optional settings for application initialization.
type Options struct {
	// LogOutput receives log lines. Defaults to os.Stderr so artifacts
	// written to stdout stay clean.
	LogOutput io.Writer

	// Registry collects metrics when metrics are enabled. Nil uses the
	// default Prometheus registry.
	Registry *prometheus.Registry

	// Version is reported by the /version endpoint.
	Version string
}

// New creates and initializes the application.
func New(cfg *config.Config, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := SetupLogger(cfg.Logging.Level, cfg.Logging.Format, out)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Bus:     events.NewBus(logger),
		version: opts.Version,
	}

	if cfg.Metrics.Enabled {
		if opts.Registry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.Registry)
			a.metricsHandler = promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})
		} else {
			a.Metrics = metrics.New()
			a.metricsHandler = promhttp.Handler()
		}
		a.subscribeMetrics()
		logger.Debug().Msg("prometheus metrics enabled")
	}

	if cfg.Storage.Enabled {
		if err := a.initStore(); err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	compilerOpts := compiler.Options{
		Logger:        logger,
		Bus:           a.Bus,
		Fingerprinter: hasher.NewBlake2b([]byte(cfg.Compiler.FingerprintKey)),
		Parallelism:   cfg.Compiler.Parallelism,
	}
	if a.Metrics != nil {
		compilerOpts.Observer = a.Metrics
	}
	a.Compiler = compiler.New(compilerOpts)

	deps := app.BuildDeps{
		Compiler: a.Compiler,
		Clock:    clock.Real{},
		IDGen:    idgen.UUID{Prefix: BuildIDPrefix},
		Bus:      a.Bus,
		Logger:   logger,
	}
	if a.Store != nil {
		deps.Store = a.Store
	}
	a.Builds = app.NewBuildService(deps)

	return a, nil
}

func (a *App) initStore() error {
	store, err := storage.NewSQLiteStore(a.Config.Storage.DSN)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.Store = store
	a.Logger.Debug().Str("dsn", a.Config.Storage.DSN).Msg("build store ready")
	return nil
}

// subscribeMetrics counts build store activity from bus events.
func (a *App) subscribeMetrics() {
	a.Bus.Subscribe(events.BuildSaved, func(ctx context.Context, e events.Event) error {
		a.Metrics.BuildsSaved.Inc()
		return nil
	})
	a.Bus.Subscribe(events.BuildCached, func(ctx context.Context, e events.Event) error {
		a.Metrics.CacheHits.Inc()
		return nil
	})
}

// Handler returns the HTTP handler serving the compile API.
func (a *App) Handler() http.Handler {
	return apihttp.NewRouter(a.Builds, a.Logger, apihttp.RouterConfig{
		Metrics:        a.Metrics,
		MetricsHandler: a.metricsHandler,
		MetricsPath:    a.Config.Metrics.Path,
		MaxBodyBytes:   a.Config.Server.MaxBodyBytes,
		Timeout:        a.Config.Server.WriteTimeout,
		Version:        a.version,
		EnableOpenAPI:  a.Config.Server.OpenAPI,
	})
}

// NewServer creates the HTTP server for the configured address.
func (a *App) NewServer() *http.Server {
	a.HTTPServer = &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Handler(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
	return a.HTTPServer
}

// WatchConfig applies reloadable settings from a config holder.
func (a *App) WatchConfig(h *config.Holder) {
	h.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		a.Compiler.SetParallelism(cfg.Compiler.Parallelism)
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
			a.Metrics.ConfigLastReload.SetToCurrentTime()
		}
	})
	h.OnReloadError(func(err error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})
}

// Run starts the HTTP server and blocks until ctx is done, a termination
// signal arrives or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.HTTPServer == nil {
		a.NewServer()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Bool("storage", a.Store != nil).
			Bool("metrics", a.Metrics != nil).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Debug().Msg("shutdown complete")
	return errors.Join(errs...)
}

// SetupLogger creates a logger for the given level and format.
// Unknown levels fall back to info; any format other than "json" renders
// human-readable console output.
func SetupLogger(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}
