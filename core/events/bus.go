// Package events provides a simple event bus for publish/subscribe patterns.
// The compiler publishes lifecycle events ("compile.started", "pass.finished",
// ...) that the CLI, the HTTP channel and the build store subscribe to.
package events

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Event names published by the compiler.
const (
	CompileStarted  = "compile.started"
	CompileFinished = "compile.finished"
	CompileFailed   = "compile.failed"
	PassFinished    = "pass.finished"
	BuildSaved      = "build.saved"
	BuildCached     = "build.cached"
)

// Event represents a published event.
type Event struct {
	// Name is the event name (e.g., "compile.finished", "pass.finished").
	Name string

	// Runtime is the runtime being assembled.
	Runtime string

	// Source is the declaration file or request the event relates to.
	Source string

	// Data contains the event payload.
	Data map[string]any
}

// Handler is a function that processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a simple publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event.
// The handler will be called whenever the event is published.
// Supports wildcard subscriptions:
//   - "compile.finished" - exact match
//   - "compile.*" - all compile events
//   - "*" - all events
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish emits an event to all matching handlers.
// Handlers are called synchronously: exact subscribers first, then prefix
// wildcards, then global wildcards. Handler errors are logged and do not stop
// delivery to the remaining handlers.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	matched := b.match(event.Name)
	b.mu.RUnlock()

	b.logger.Debug().
		Str("event", event.Name).
		Str("runtime", event.Runtime).
		Str("source", event.Source).
		Int("handlers", len(matched)).
		Msg("event emitted")

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers checks if any handlers are registered for an event.
func (b *Bus) HasSubscribers(event string) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.match(event)) > 0
}

// match collects the handlers for an event name. Callers hold mu.
func (b *Bus) match(name string) []Handler {
	var matched []Handler
	matched = append(matched, b.handlers[name]...)
	if name != "" {
		if wildcard := prefixWildcard(name); wildcard != name {
			matched = append(matched, b.handlers[wildcard]...)
		}
	}
	matched = append(matched, b.handlers["*"]...)
	return matched
}

// prefixWildcard returns the "prefix.*" pattern matching an event name.
func prefixWildcard(name string) string {
	prefix, _, _ := strings.Cut(name, ".")
	return prefix + ".*"
}
