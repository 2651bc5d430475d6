package formatter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML output format"
}

// FormatBundle formats the bundle, or the selected artifacts, as YAML.
func (f *YAMLFormatter) FormatBundle(w io.Writer, b *artifact.Bundle, opts FormatOptions) error {
	data, err := SelectParts(b, opts.Only)
	if err != nil {
		return err
	}
	return f.encode(w, data)
}

// FormatTable formats a module table as YAML.
func (f *YAMLFormatter) FormatTable(w io.Writer, t *convention.Table, _ FormatOptions) error {
	return f.encode(w, newTableDocument(t))
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output)
}

// encode writes YAML to the writer.
func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

func init() {
	Register(NewYAMLFormatter())
}
