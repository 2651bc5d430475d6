package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// section is one titled table of an artifact.
type section struct {
	title   string
	columns []string
	rows    [][]string
}

// FormatBundle formats each selected artifact as a titled table.
func (f *TableFormatter) FormatBundle(w io.Writer, b *artifact.Bundle, opts FormatOptions) error {
	names := opts.Only
	if len(names) == 0 {
		names = artifact.Names
	}

	fmt.Fprintf(w, "Runtime %s (Block = %s, NodeBlock = %s, UncheckedExtrinsic = %s)\n",
		b.Runtime.Name, b.Runtime.Block, b.Runtime.NodeBlock, b.Runtime.UncheckedExtrinsic)

	for _, name := range names {
		s, err := f.section(b, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		if err := f.writeSection(w, s, opts); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable formats a module table with one row per module.
func (f *TableFormatter) FormatTable(w io.Writer, t *convention.Table, opts FormatOptions) error {
	s := section{
		title:   "Runtime " + t.Runtime(),
		columns: []string{"#", "name", "module", "instance", "capabilities"},
	}
	for i, d := range t.Modules() {
		caps := make([]string, len(d.Capabilities))
		for j, c := range d.Capabilities {
			caps[j] = c.String()
		}
		s.rows = append(s.rows, []string{
			strconv.Itoa(i), d.Name, d.Path, d.Instance, strings.Join(caps, ", "),
		})
	}
	return f.writeSection(w, s, opts)
}

// FormatError formats an error message.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %s\n", err.Error())
	return nil
}

func (f *TableFormatter) section(b *artifact.Bundle, name string) (section, error) {
	switch name {
	case artifact.NameEvent, artifact.NameOrigin:
		enum := b.Event
		if name == artifact.NameOrigin {
			enum = b.Origin
		}
		s := section{
			title:   fmt.Sprintf("%s (system: %s)", enum.Name, enum.System),
			columns: []string{"index", "module", "instance", "generic", "type"},
		}
		for _, v := range enum.Variants {
			s.rows = append(s.rows, []string{strconv.Itoa(v.Index), v.Module, v.Instance, f.formatBool(v.Generic), v.Type})
		}
		return s, nil

	case artifact.NameModules:
		s := section{
			title:   "Modules (hook order: " + strings.Join(b.Modules.AllModules, ", ") + ")",
			columns: []string{"name", "module", "instance", "type"},
		}
		for _, m := range b.Modules.Bindings {
			s.rows = append(s.rows, []string{m.Name, m.Module, m.Instance, m.Type})
		}
		return s, nil

	case artifact.NameCall:
		s := section{
			title:   b.Call.Name,
			columns: []string{"index", "name", "module", "instance", "type"},
		}
		for _, v := range b.Call.Variants {
			s.rows = append(s.rows, []string{strconv.Itoa(v.Index), v.Name, v.Module, v.Instance, v.Type})
		}
		return s, nil

	case artifact.NameMetadata:
		s := section{
			title:   "Metadata",
			columns: []string{"name", "module", "instance", "with"},
		}
		for _, m := range b.Metadata.Modules {
			s.rows = append(s.rows, []string{m.Name, m.Module, m.Instance, strings.Join(m.With, ", ")})
		}
		return s, nil

	case artifact.NameGenesis:
		s := section{
			title:   b.Genesis.Name,
			columns: []string{"field", "module", "instance", "type"},
		}
		for _, fld := range b.Genesis.Fields {
			s.rows = append(s.rows, []string{fld.Field, fld.Module, fld.Instance, fld.Type})
		}
		return s, nil

	case artifact.NameInherent:
		s := section{
			title:   "Inherents",
			columns: []string{"name", "module", "call_source"},
		}
		for _, e := range b.Inherent.Entries {
			s.rows = append(s.rows, []string{e.Name, e.Module, e.CallSource})
		}
		return s, nil

	case artifact.NameValidateUnsigned:
		s := section{
			title:   "ValidateUnsigned",
			columns: []string{"#", "name"},
		}
		for i, m := range b.ValidateUnsigned.Modules {
			s.rows = append(s.rows, []string{strconv.Itoa(i), m})
		}
		return s, nil
	}
	return section{}, fmt.Errorf("unknown artifact %q", name)
}

func (f *TableFormatter) writeSection(w io.Writer, s section, opts FormatOptions) error {
	fmt.Fprintf(w, "%s:\n", s.title)
	if len(s.rows) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !opts.NoHeader {
		headers := make([]string, len(s.columns))
		for i, col := range s.columns {
			headers[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, "  "+strings.Join(headers, "\t"))
	}

	for _, row := range s.rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = f.formatValue(v, opts.MaxWidth)
		}
		fmt.Fprintln(tw, "  "+strings.Join(values, "\t"))
	}

	return tw.Flush()
}

func (f *TableFormatter) formatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// formatValue formats a cell for display.
func (f *TableFormatter) formatValue(str string, maxWidth int) string {
	if str == "" {
		return "-"
	}
	if maxWidth > 3 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}
	return str
}

func init() {
	Register(NewTableFormatter())
}
