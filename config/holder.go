// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder keeps the active configuration of a long-running process and swaps
// it when the file changes. A file that fails to load never replaces the
// active configuration.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	onError  []func(error)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path and returns a holder for it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &Holder{
		config: cfg,
		path:   abs,
		logger: logger.With().Str("config", abs).Logger(),
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the active configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Reload loads the file again. On success the new configuration becomes
// active and OnChange callbacks run; otherwise OnReloadError callbacks run.
func (h *Holder) Reload() error {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config rejected")
		h.mu.RLock()
		callbacks := append([]func(error){}, h.onError...)
		h.mu.RUnlock()
		for _, fn := range callbacks {
			fn(err)
		}
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.config
	h.config = next
	callbacks := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(prev, next)
	for _, fn := range callbacks {
		fn(next)
	}
	return nil
}

// OnChange registers fn to receive every configuration that becomes active.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnReloadError registers fn to receive reload failures.
func (h *Holder) OnReloadError(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// WatchFile reloads whenever the file is written or replaced.
// The parent directory is watched so renames over the file are seen.
func (h *Holder) WatchFile() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = w

	go h.watch(w)
	h.logger.Info().Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				h.logger.Info().Msg("SIGHUP received")
				h.Reload()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if h.affects(ev) {
				h.logger.Debug().Str("op", ev.Op.String()).Msg("config file changed")
				h.Reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher")
		case <-h.stopCh:
			return
		}
	}
}

// affects reports whether ev may have changed the contents of the file.
func (h *Holder) affects(ev fsnotify.Event) bool {
	return filepath.Clean(ev.Name) == h.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (h *Holder) logChanges(prev, next *Config) {
	if prev.Logging != next.Logging {
		h.logger.Info().
			Str("level", next.Logging.Level).
			Str("format", next.Logging.Format).
			Msg("logging changed")
	}
	if prev.Output != next.Output {
		h.logger.Info().
			Str("format", next.Output.Format).
			Bool("compact", next.Output.Compact).
			Str("dir", next.Output.Dir).
			Msg("output changed")
	}
	if prev.Compiler.Parallelism != next.Compiler.Parallelism {
		h.logger.Info().
			Int("from", prev.Compiler.Parallelism).
			Int("to", next.Compiler.Parallelism).
			Msg("compiler parallelism changed")
	}
	for _, field := range RestartRequired(prev, next) {
		h.logger.Warn().Str("field", field).Msg("change takes effect after restart")
	}
}

// restartFields are the settings captured when the process starts.
// Everything else is applied on reload.
var restartFields = []struct {
	name    string
	changed func(a, b *Config) bool
}{
	{"compiler.fingerprint_key", func(a, b *Config) bool { return a.Compiler.FingerprintKey != b.Compiler.FingerprintKey }},
	{"storage.enabled", func(a, b *Config) bool { return a.Storage.Enabled != b.Storage.Enabled }},
	{"storage.dsn", func(a, b *Config) bool { return a.Storage.DSN != b.Storage.DSN }},
	{"server.host", func(a, b *Config) bool { return a.Server.Host != b.Server.Host }},
	{"server.port", func(a, b *Config) bool { return a.Server.Port != b.Server.Port }},
	{"server.read_timeout", func(a, b *Config) bool { return a.Server.ReadTimeout != b.Server.ReadTimeout }},
	{"server.write_timeout", func(a, b *Config) bool { return a.Server.WriteTimeout != b.Server.WriteTimeout }},
	{"server.max_body_bytes", func(a, b *Config) bool { return a.Server.MaxBodyBytes != b.Server.MaxBodyBytes }},
	{"server.openapi", func(a, b *Config) bool { return a.Server.OpenAPI != b.Server.OpenAPI }},
	{"metrics.enabled", func(a, b *Config) bool { return a.Metrics.Enabled != b.Metrics.Enabled }},
	{"metrics.path", func(a, b *Config) bool { return a.Metrics.Path != b.Metrics.Path }},
}

// RestartRequired lists the changed settings that a running process does
// not pick up, in a fixed order.
func RestartRequired(prev, next *Config) []string {
	var changed []string
	for _, f := range restartFields {
		if f.changed(prev, next) {
			changed = append(changed, f.name)
		}
	}
	return changed
}
