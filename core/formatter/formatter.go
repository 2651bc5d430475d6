// Package formatter provides a pluggable output formatting system.
// Formatters render assembled runtimes and module tables as table, json or yaml output.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/schema"
)

// Formatter renders assembly results in a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatBundle formats the artifacts of an assembled runtime.
	FormatBundle(w io.Writer, b *artifact.Bundle, opts FormatOptions) error

	// FormatTable formats a normalized module table.
	FormatTable(w io.Writer, t *convention.Table, opts FormatOptions) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Only limits output to the named artifacts (nil = all).
	Only []string

	// NoHeader disables header rows for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (for json).
	Compact bool

	// MaxWidth truncates long values (0 = no limit).
	MaxWidth int
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	return f, ok
}

// Default returns the default formatter.
func (r *Registry) Default() Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[r.defaultFmt]
	if !ok {
		// Fallback to first available
		for _, fmt := range r.formatters {
			return fmt
		}
		return nil
	}
	return f
}

// SetDefault sets the default formatter.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[name]; !exists {
		return fmt.Errorf("formatter %q not registered", name)
	}

	r.defaultFmt = name
	return nil
}

// List returns all registered formatter names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(f Formatter) error {
	return DefaultRegistry.Register(f)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// Default returns the default formatter from the default registry.
func Default() Formatter {
	return DefaultRegistry.Default()
}

// List returns all formatter names from the default registry.
func List() []string {
	return DefaultRegistry.List()
}

// SelectParts returns the whole bundle, or a map of the named artifacts.
func SelectParts(b *artifact.Bundle, only []string) (any, error) {
	if len(only) == 0 {
		return b, nil
	}
	parts := make(map[string]any, len(only))
	for _, name := range only {
		part, ok := b.Part(name)
		if !ok {
			return nil, fmt.Errorf("unknown artifact %q", name)
		}
		parts[name] = part
	}
	return parts, nil
}

// tableDocument is the serialized form of a module table.
type tableDocument struct {
	Header  schema.Header       `json:"header" yaml:"header"`
	Modules []schema.ModuleDecl `json:"modules" yaml:"modules"`
}

func newTableDocument(t *convention.Table) tableDocument {
	return tableDocument{
		Header:  t.Header(),
		Modules: t.Modules(),
	}
}
