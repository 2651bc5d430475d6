package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce coalesces bursts of file events from a single save.
const WatchDebounce = 50 * time.Millisecond

// Watch compiles path once, then again after every write or create of the
// file, until ctx is done. fn receives each result or error; compile errors
// do not stop the watch.
func (c *Compiler) Watch(ctx context.Context, path string, fn func(*Result, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so atomic saves (rename over the file) are seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	c.logger.Info().Str("path", abs).Msg("watching runtime declaration")
	fn(c.CompileFile(ctx, path))

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				c.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("declaration changed")
				pending = time.After(WatchDebounce)
			}

		case <-pending:
			pending = nil
			fn(c.CompileFile(ctx, path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}
