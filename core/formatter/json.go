package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatBundle formats the bundle, or the selected artifacts, as JSON.
func (f *JSONFormatter) FormatBundle(w io.Writer, b *artifact.Bundle, opts FormatOptions) error {
	data, err := SelectParts(b, opts.Only)
	if err != nil {
		return err
	}
	return f.encode(w, data, opts.Compact)
}

// FormatTable formats a module table as JSON.
func (f *JSONFormatter) FormatTable(w io.Writer, t *convention.Table, opts FormatOptions) error {
	return f.encode(w, newTableDocument(t), opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output, false)
}

// encode writes JSON to the writer.
func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
