package schema

import "strings"

// Kind identifies a capability a module contributes to the runtime.
type Kind string

const (
	KindModule           Kind = "Module"
	KindCall             Kind = "Call"
	KindStorage          Kind = "Storage"
	KindEvent            Kind = "Event"
	KindOrigin           Kind = "Origin"
	KindConfig           Kind = "Config"
	KindInherent         Kind = "Inherent"
	KindValidateUnsigned Kind = "ValidateUnsigned"
)

// Kinds lists every recognized capability kind.
var Kinds = []Kind{
	KindModule,
	KindCall,
	KindStorage,
	KindEvent,
	KindOrigin,
	KindConfig,
	KindInherent,
	KindValidateUnsigned,
}

// String returns the capability name as written in a declaration.
func (k Kind) String() string {
	return string(k)
}

// ParseKind returns the Kind for a capability token name.
// Names are case-sensitive.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// AllowsGenerics reports whether the kind may carry generic parameters.
func (k Kind) AllowsGenerics() bool {
	switch k {
	case KindEvent, KindOrigin, KindConfig:
		return true
	default:
		return false
	}
}

// AllowsArgs reports whether the kind may carry a parenthesized argument.
func (k Kind) AllowsArgs() bool {
	return k == KindInherent
}

// Capability is a validated capability of a module.
type Capability struct {
	// Kind is the capability kind.
	Kind Kind `json:"kind" yaml:"kind"`

	// Generics holds the generic parameters as written (e.g. ["T", "I"]).
	// Only Event, Origin and Config may be generic.
	Generics []string `json:"generics,omitempty" yaml:"generics,omitempty"`

	// AltCall is the module whose call variant an Inherent checks.
	// Empty means the module checks its own calls.
	AltCall string `json:"alt_call,omitempty" yaml:"alt_call,omitempty"`
}

// Generic reports whether the capability is parameterized.
func (c Capability) Generic() bool {
	return len(c.Generics) > 0
}

// String renders the capability in declaration syntax.
func (c Capability) String() string {
	var b strings.Builder
	b.WriteString(string(c.Kind))
	if len(c.Generics) > 0 {
		b.WriteByte('<')
		b.WriteString(strings.Join(c.Generics, ", "))
		b.WriteByte('>')
	}
	if c.AltCall != "" {
		b.WriteByte('(')
		b.WriteString(c.AltCall)
		b.WriteByte(')')
	}
	return b.String()
}
