// Package artifact describes the structural outputs of runtime assembly.
//
// Each artifact describes a type, union or dispatcher of the assembled runtime
// by name and type reference. Artifacts are plain data: they carry no behavior
// and are rendered by package formatter or consumed by package runtime.
package artifact

// Artifact names, in the order the generators run and errors are reported.
const (
	NameEvent            = "event"
	NameOrigin           = "origin"
	NameModules          = "modules"
	NameCall             = "call"
	NameMetadata         = "metadata"
	NameGenesis          = "genesis"
	NameInherent         = "inherent"
	NameValidateUnsigned = "validate_unsigned"
)

// Names lists every artifact name in generation order.
var Names = []string{
	NameEvent,
	NameOrigin,
	NameModules,
	NameCall,
	NameMetadata,
	NameGenesis,
	NameInherent,
	NameValidateUnsigned,
}

// RuntimeInfo describes the runtime type and its block bindings.
type RuntimeInfo struct {
	Name               string `json:"name" yaml:"name"`
	Block              string `json:"block" yaml:"block"`
	NodeBlock          string `json:"node_block" yaml:"node_block"`
	UncheckedExtrinsic string `json:"unchecked_extrinsic" yaml:"unchecked_extrinsic"`
}

// OuterEnum is the runtime-wide union of module events or origins.
type OuterEnum struct {
	// Name is the enum name ("Event" or "Origin").
	Name string `json:"name" yaml:"name"`

	// Runtime the enum is declared for.
	Runtime string `json:"runtime" yaml:"runtime"`

	// System is the module path of the system module.
	System string `json:"system" yaml:"system"`

	Variants []EnumVariant `json:"variants" yaml:"variants"`
}

// EnumVariant is one module's contribution to an outer enum.
type EnumVariant struct {
	Index    int    `json:"index" yaml:"index"`
	Module   string `json:"module" yaml:"module"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Generic  bool   `json:"generic" yaml:"generic"`

	// Type is the wrapped type (e.g. "balances::Event<Runtime>").
	Type string `json:"type" yaml:"type"`
}

// ModuleSet binds every declared module to the runtime.
type ModuleSet struct {
	Runtime string `json:"runtime" yaml:"runtime"`

	// System is the binding name of the system module.
	System string `json:"system" yaml:"system"`

	Bindings []ModuleBinding `json:"bindings" yaml:"bindings"`

	// AllModules lists binding names in lifecycle hook order: System first,
	// then every other module in declaration order.
	AllModules []string `json:"all_modules" yaml:"all_modules"`
}

// ModuleBinding is a named alias for a module bound to the runtime.
type ModuleBinding struct {
	Name     string `json:"name" yaml:"name"`
	Module   string `json:"module" yaml:"module"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Type     string `json:"type" yaml:"type"`
}

// OuterCall is the union of all dispatchable calls.
//
// Variant indices are positions among the modules declaring Call, in
// declaration order. Encoded calls depend on these indices, so adding or
// reordering Call modules changes the encoding of existing calls.
type OuterCall struct {
	Name     string        `json:"name" yaml:"name"`
	Runtime  string        `json:"runtime" yaml:"runtime"`
	Origin   string        `json:"origin" yaml:"origin"`
	Variants []CallVariant `json:"variants" yaml:"variants"`
}

// CallVariant is one module's call type within the outer call.
type CallVariant struct {
	Index    int    `json:"index" yaml:"index"`
	Name     string `json:"name" yaml:"name"`
	Module   string `json:"module" yaml:"module"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Type     string `json:"type" yaml:"type"`
}

// Metadata lists the modules exposed in runtime metadata.
type Metadata struct {
	Runtime string           `json:"runtime" yaml:"runtime"`
	Modules []MetadataModule `json:"modules" yaml:"modules"`
}

// MetadataModule is a module entry in runtime metadata together with the
// capabilities reported alongside it.
type MetadataModule struct {
	Module   string   `json:"module" yaml:"module"`
	Instance string   `json:"instance,omitempty" yaml:"instance,omitempty"`
	Name     string   `json:"name" yaml:"name"`
	With     []string `json:"with" yaml:"with"`
}

// GenesisConfig is the aggregated genesis configuration.
type GenesisConfig struct {
	Name    string         `json:"name" yaml:"name"`
	Runtime string         `json:"runtime" yaml:"runtime"`
	Fields  []GenesisField `json:"fields" yaml:"fields"`
}

// GenesisField is one module's optional configuration within genesis.
// Fields are populated in order.
type GenesisField struct {
	Field    string `json:"field" yaml:"field"`
	Name     string `json:"name" yaml:"name"`
	Module   string `json:"module" yaml:"module"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Generic  bool   `json:"generic" yaml:"generic"`
	Type     string `json:"type" yaml:"type"`
}

// InherentSet describes the inherent data dispatcher.
type InherentSet struct {
	Block              string          `json:"block" yaml:"block"`
	UncheckedExtrinsic string          `json:"unchecked_extrinsic" yaml:"unchecked_extrinsic"`
	Entries            []InherentEntry `json:"entries" yaml:"entries"`
}

// InherentEntry is a module that provides inherents.
type InherentEntry struct {
	Name   string `json:"name" yaml:"name"`
	Module string `json:"module" yaml:"module"`

	// CallSource is the call variant whose extrinsics this module checks.
	CallSource string `json:"call_source" yaml:"call_source"`
}

// UnsignedSet describes the unsigned transaction validator.
type UnsignedSet struct {
	Runtime string   `json:"runtime" yaml:"runtime"`
	Modules []string `json:"modules" yaml:"modules"`
}

// Bundle is the complete output of runtime assembly.
type Bundle struct {
	Runtime          RuntimeInfo   `json:"runtime" yaml:"runtime"`
	Event            OuterEnum     `json:"event" yaml:"event"`
	Origin           OuterEnum     `json:"origin" yaml:"origin"`
	Modules          ModuleSet     `json:"modules" yaml:"modules"`
	Call             OuterCall     `json:"call" yaml:"call"`
	Metadata         Metadata      `json:"metadata" yaml:"metadata"`
	Genesis          GenesisConfig `json:"genesis" yaml:"genesis"`
	Inherent         InherentSet   `json:"inherent" yaml:"inherent"`
	ValidateUnsigned UnsignedSet   `json:"validate_unsigned" yaml:"validate_unsigned"`
}

// Part returns the artifact with the given name.
func (b *Bundle) Part(name string) (any, bool) {
	switch name {
	case NameEvent:
		return b.Event, true
	case NameOrigin:
		return b.Origin, true
	case NameModules:
		return b.Modules, true
	case NameCall:
		return b.Call, true
	case NameMetadata:
		return b.Metadata, true
	case NameGenesis:
		return b.Genesis, true
	case NameInherent:
		return b.Inherent, true
	case NameValidateUnsigned:
		return b.ValidateUnsigned, true
	default:
		return nil, false
	}
}
