// Package convention normalizes parsed runtime declarations into their
// canonical form and holds the naming conventions shared by the generators.
package convention

import (
	"strings"

	"github.com/artpar/construct/core/schema"
)

// SystemName is the binding name the system module must use.
const SystemName = "System"

// GenericRuntime is the generic parameter that stands for the runtime.
const GenericRuntime = "T"

// DefaultCapabilities returns the capability set implied by the default keyword:
// Module, Call, Storage, Event<T>, Config<T>.
func DefaultCapabilities() []schema.Capability {
	return []schema.Capability{
		{Kind: schema.KindModule},
		{Kind: schema.KindCall},
		{Kind: schema.KindStorage},
		{Kind: schema.KindEvent, Generics: []string{GenericRuntime}},
		{Kind: schema.KindConfig, Generics: []string{GenericRuntime}},
	}
}

// Normalize converts every entry of a parsed declaration into a ModuleDecl
// and returns them as an immutable Table in declaration order.
func Normalize(f *schema.File) (*Table, error) {
	decls := make([]schema.ModuleDecl, 0, len(f.Entries))
	for _, entry := range f.Entries {
		decl, err := NormalizeEntry(entry)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return NewTable(f.Header, decls), nil
}

// NormalizeEntry converts one entry to canonical form.
//
// A bare entry is treated as {default}. A default entry expands to the default
// set followed by the extras verbatim, so {default, Event} yields Event twice.
// Explicit entries pass through. Every token is then validated.
func NormalizeEntry(e schema.Entry) (schema.ModuleDecl, error) {
	decl := schema.ModuleDecl{
		Name:     e.Name,
		Path:     e.Path,
		Instance: e.Instance,
	}

	switch e.Form {
	case schema.FormBare:
		decl.Capabilities = DefaultCapabilities()
	case schema.FormDefault:
		decl.Capabilities = DefaultCapabilities()
		extras, err := capabilities(e.Tokens)
		if err != nil {
			return schema.ModuleDecl{}, err
		}
		decl.Capabilities = append(decl.Capabilities, extras...)
	default:
		caps, err := capabilities(e.Tokens)
		if err != nil {
			return schema.ModuleDecl{}, err
		}
		decl.Capabilities = caps
	}

	if decl.Capabilities == nil {
		decl.Capabilities = []schema.Capability{}
	}
	return decl, nil
}

func capabilities(tokens []schema.CapToken) ([]schema.Capability, error) {
	caps := make([]schema.Capability, 0, len(tokens))
	for _, tok := range tokens {
		c, err := Capability(tok)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return caps, nil
}

// Capability validates a raw token and converts it to a Capability.
func Capability(tok schema.CapToken) (schema.Capability, error) {
	kind, ok := schema.ParseKind(tok.Name)
	if !ok {
		return schema.Capability{}, schema.Errorf(tok.Pos, "unknown capability %q", tok.Name)
	}

	c := schema.Capability{Kind: kind}

	if len(tok.Generics) > 0 {
		if !kind.AllowsGenerics() {
			return schema.Capability{}, schema.Errorf(tok.Pos, "capability %s does not take generic parameters", kind)
		}
		c.Generics = append([]string(nil), tok.Generics...)
	}

	if tok.HasArgs {
		if !kind.AllowsArgs() {
			return schema.Capability{}, schema.Errorf(tok.Pos, "capability %s does not take arguments", kind)
		}
		switch len(tok.Args) {
		case 0:
		case 1:
			c.AltCall = tok.Args[0]
		default:
			return schema.Capability{}, schema.Errorf(tok.Pos, "capability %s takes at most one argument, got %d", kind, len(tok.Args))
		}
	}

	return c, nil
}

// -----------------------------------------------------------------------------
// Naming
// -----------------------------------------------------------------------------

// ConfigFieldName returns the genesis configuration field for a module binding.
func ConfigFieldName(name string) string {
	return name + "Config"
}

// InstanceRef returns the fully qualified instance type of a module.
func InstanceRef(path, instance string) string {
	return path + "::" + instance
}

// TypeRef renders path::Type with optional generic parameters.
func TypeRef(path, typ string, params ...string) string {
	ref := path + "::" + typ
	if len(params) == 0 {
		return ref
	}
	return ref + "<" + strings.Join(params, ", ") + ">"
}

// RuntimeParams returns the generic parameters for a module type bound to a
// runtime: the runtime itself, followed by the instance when one is declared.
func RuntimeParams(runtime string, decl schema.ModuleDecl) []string {
	params := []string{runtime}
	if decl.Instance != "" {
		params = append(params, InstanceRef(decl.Path, decl.Instance))
	}
	return params
}
