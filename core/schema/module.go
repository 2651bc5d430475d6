package schema

import (
	"strings"
)

// ModuleDecl is the canonical description of one module in a runtime.
// Every surface form of an entry normalizes to a ModuleDecl.
type ModuleDecl struct {
	// Name is the binding name within the runtime (e.g. "Balances").
	Name string `json:"name" yaml:"name"`

	// Path is the module path (e.g. "balances").
	Path string `json:"module" yaml:"module"`

	// Instance selects one of several instances of the same module.
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`

	// Capabilities in declaration order. Duplicates are kept.
	Capabilities []Capability `json:"capabilities" yaml:"capabilities"`
}

// Has reports whether the module declares a capability of kind k.
func (d ModuleDecl) Has(k Kind) bool {
	_, ok := d.Find(k)
	return ok
}

// Find returns the first capability of kind k.
func (d ModuleDecl) Find(k Kind) (Capability, bool) {
	for _, c := range d.Capabilities {
		if c.Kind == k {
			return c, true
		}
	}
	return Capability{}, false
}

// Index returns the position of the first capability of kind k, or -1.
func (d ModuleDecl) Index(k Kind) int {
	for i, c := range d.Capabilities {
		if c.Kind == k {
			return i
		}
	}
	return -1
}

// String renders the declaration in explicit form:
//
//	Name: path::<Instance>::{Module, Call, Event<T, I>}
func (d ModuleDecl) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteString(": ")
	b.WriteString(d.Path)
	b.WriteString("::")
	if d.Instance != "" {
		b.WriteByte('<')
		b.WriteString(d.Instance)
		b.WriteString(">::")
	}
	b.WriteByte('{')
	for i, c := range d.Capabilities {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Header is the outer declaration of a runtime.
type Header struct {
	// Runtime is the name of the runtime type (e.g. "Runtime").
	Runtime string `json:"runtime" yaml:"runtime"`

	// Block is the runtime block type.
	Block string `json:"block" yaml:"block"`

	// NodeBlock is the node block type path (e.g. "opaque::Block").
	NodeBlock string `json:"node_block" yaml:"node_block"`

	// UncheckedExtrinsic is the extrinsic type.
	UncheckedExtrinsic string `json:"unchecked_extrinsic" yaml:"unchecked_extrinsic"`
}

// String renders the header as it appears before the module list.
func (h Header) String() string {
	return "pub enum " + h.Runtime + " where Block = " + h.Block +
		", NodeBlock = " + h.NodeBlock +
		", UncheckedExtrinsic = " + h.UncheckedExtrinsic
}
