package convention

import (
	"strings"

	"github.com/artpar/construct/core/schema"
)

// Table is the ordered, immutable list of canonical module declarations.
// Declaration order is significant and is preserved by every accessor.
// A Table is safe for concurrent reads.
type Table struct {
	header  schema.Header
	modules []schema.ModuleDecl
	byName  map[string]int
}

// NewTable builds a table from a header and declarations. The declarations are
// copied, so later changes to the argument do not affect the table.
func NewTable(header schema.Header, decls []schema.ModuleDecl) *Table {
	t := &Table{
		header:  header,
		modules: make([]schema.ModuleDecl, len(decls)),
		byName:  make(map[string]int, len(decls)),
	}
	for i, d := range decls {
		t.modules[i] = cloneDecl(d)
		if _, seen := t.byName[d.Name]; !seen {
			t.byName[d.Name] = i
		}
	}
	return t
}

// Header returns the runtime header.
func (t *Table) Header() schema.Header {
	return t.header
}

// Runtime returns the runtime type name.
func (t *Table) Runtime() string {
	return t.header.Runtime
}

// Len returns the number of modules.
func (t *Table) Len() int {
	return len(t.modules)
}

// At returns a copy of the i-th module.
func (t *Table) At(i int) schema.ModuleDecl {
	return cloneDecl(t.modules[i])
}

// Modules returns a copy of all modules in declaration order.
func (t *Table) Modules() []schema.ModuleDecl {
	out := make([]schema.ModuleDecl, len(t.modules))
	for i, d := range t.modules {
		out[i] = cloneDecl(d)
	}
	return out
}

// Lookup returns the first module bound to name.
func (t *Table) Lookup(name string) (schema.ModuleDecl, bool) {
	i, ok := t.byName[name]
	if !ok {
		return schema.ModuleDecl{}, false
	}
	return cloneDecl(t.modules[i]), true
}

// Each calls fn for every module in order. Iteration stops when fn returns false.
func (t *Table) Each(fn func(i int, d schema.ModuleDecl) bool) {
	for i, d := range t.modules {
		if !fn(i, cloneDecl(d)) {
			return
		}
	}
}

// String renders the table as a declaration in explicit form. Parsing and
// normalizing the result yields an equal table.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(t.header.String())
	b.WriteString(" {\n")
	for _, d := range t.modules {
		b.WriteString("    ")
		b.WriteString(d.String())
		b.WriteString(",\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func cloneDecl(d schema.ModuleDecl) schema.ModuleDecl {
	caps := make([]schema.Capability, len(d.Capabilities))
	for i, c := range d.Capabilities {
		if c.Generics != nil {
			c.Generics = append([]string(nil), c.Generics...)
		}
		caps[i] = c
	}
	d.Capabilities = caps
	return d
}
