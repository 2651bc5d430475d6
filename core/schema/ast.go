package schema

import "fmt"

// Position is a location in a declaration source.
type Position struct {
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Offset   int    `json:"offset" yaml:"offset"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
}

// String returns "file:line:col", or "line:col" when the filename is unknown.
func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Form is the surface form an entry was written in.
type Form int

const (
	// FormBare is "Name: path".
	FormBare Form = iota
	// FormDefault is "Name: path::{default, ...}".
	FormDefault
	// FormExplicit is "Name: path::[<Instance>::]{...}".
	FormExplicit
)

func (f Form) String() string {
	switch f {
	case FormBare:
		return "bare"
	case FormDefault:
		return "default"
	case FormExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

// CapToken is a capability token exactly as written.
type CapToken struct {
	Name     string
	Generics []string
	Args     []string
	// HasArgs distinguishes "Inherent()" from "Inherent".
	HasArgs bool
	Pos     Position
}

// Entry is one module entry before normalization.
type Entry struct {
	Name     string
	Path     string
	Instance string
	Form     Form

	// Tokens holds the capability tokens. For FormDefault the leading
	// default keyword is not included; the remaining tokens are the extras.
	Tokens []CapToken

	Pos Position
}

// File is a parsed runtime declaration.
type File struct {
	Filename string
	Header   Header
	Entries  []Entry
}
