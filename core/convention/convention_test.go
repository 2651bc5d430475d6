package convention

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/artpar/construct/core/schema"
)

const header = "pub enum Runtime where Block = Block, NodeBlock = opaque::Block, UncheckedExtrinsic = UncheckedExtrinsic "

func mustNormalize(t *testing.T, src string) *Table {
	t.Helper()
	f, err := schema.ParseString(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	table, err := Normalize(f)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return table
}

// -----------------------------------------------------------------------------
// Surface forms
// -----------------------------------------------------------------------------

func TestNormalize_SurfaceFormsEquivalent(t *testing.T) {
	forms := []string{
		"{ System: system }",
		"{ System: system::{default} }",
		"{ System: system::{Module, Call, Storage, Event<T>, Config<T>} }",
	}

	var first schema.ModuleDecl
	for i, src := range forms {
		table := mustNormalize(t, header+src)
		got := table.At(0)
		if i == 0 {
			first = got
			continue
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Errorf("form %d differs from bare form (-bare +got):\n%s", i, diff)
		}
	}

	if diff := cmp.Diff(DefaultCapabilities(), first.Capabilities); diff != "" {
		t.Errorf("bare form capabilities (-want +got):\n%s", diff)
	}
}

func TestNormalize_DefaultExtrasAppendedVerbatim(t *testing.T) {
	table := mustNormalize(t, header+"{ Balances: balances::{default, Event} }")
	got := table.At(0)

	want := append(DefaultCapabilities(), schema.Capability{Kind: schema.KindEvent})
	if diff := cmp.Diff(want, got.Capabilities); diff != "" {
		t.Errorf("capabilities (-want +got):\n%s", diff)
	}

	events := 0
	for _, c := range got.Capabilities {
		if c.Kind == schema.KindEvent {
			events++
		}
	}
	if events != 2 {
		t.Errorf("Event appears %d times, want 2", events)
	}
}

func TestNormalize_ExplicitPassthrough(t *testing.T) {
	table := mustNormalize(t, header+`{
		Test3_Instance1: test3::<Instance1>::{Module, Call, Event<T, I>},
		Aura: aura::{Module, Config<T>, Inherent(Timestamp)},
		Timestamp: timestamp::{Module, Inherent()},
		Empty: empty::{},
	}`)

	if table.Len() != 4 {
		t.Fatalf("Len = %d, want 4", table.Len())
	}

	inst := table.At(0)
	if inst.Instance != "Instance1" {
		t.Errorf("Instance = %q, want Instance1", inst.Instance)
	}
	if ev, _ := inst.Find(schema.KindEvent); len(ev.Generics) != 2 {
		t.Errorf("Event generics = %v, want [T I]", ev.Generics)
	}

	aura := table.At(1)
	if inh, _ := aura.Find(schema.KindInherent); inh.AltCall != "Timestamp" {
		t.Errorf("Inherent AltCall = %q, want Timestamp", inh.AltCall)
	}

	ts := table.At(2)
	if inh, _ := ts.Find(schema.KindInherent); inh.AltCall != "" {
		t.Errorf("Inherent() AltCall = %q, want empty", inh.AltCall)
	}

	empty := table.At(3)
	if empty.Capabilities == nil || len(empty.Capabilities) != 0 {
		t.Errorf("empty module capabilities = %#v, want empty non-nil slice", empty.Capabilities)
	}
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

func TestNormalize_InvalidCapabilities(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown capability", "{ A: a::{Module, Storge} }"},
		{"unknown extra", "{ A: a::{default, Weight} }"},
		{"generic call", "{ A: a::{Call<T>} }"},
		{"generic module", "{ A: a::{Module<T>} }"},
		{"args on event", "{ A: a::{Event(B)} }"},
		{"args on config", "{ A: a::{Config<T>()} }"},
		{"two inherent args", "{ A: a::{Inherent(B, C)} }"},
		{"lowercase kind", "{ A: a::{module} }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := schema.ParseString(header + tt.src)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			_, err = Normalize(f)
			var gerr *schema.GrammarError
			if !errors.As(err, &gerr) {
				t.Fatalf("Normalize error = %v, want *schema.GrammarError", err)
			}
			if gerr.Pos.Line == 0 {
				t.Errorf("GrammarError has no position: %v", gerr)
			}
		})
	}
}

func TestCapability_ErrorPosition(t *testing.T) {
	f, err := schema.ParseString(header + "{ A: a::{Module, Bogus} }")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	_, err = NormalizeEntry(f.Entries[0])

	var gerr *schema.GrammarError
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *schema.GrammarError", err)
	}
	if gerr.Pos != f.Entries[0].Tokens[1].Pos {
		t.Errorf("Pos = %v, want %v", gerr.Pos, f.Entries[0].Tokens[1].Pos)
	}
}

// -----------------------------------------------------------------------------
// Table
// -----------------------------------------------------------------------------

func TestTable_Idempotent(t *testing.T) {
	src := header + `{
		System: system,
		Balances: balances::{default, Event},
		Aura: aura::{Module, Config<T>, Inherent(Timestamp)},
		Test3_Instance1: test3::<Instance1>::{Module, Call, Event<T, I>},
		Empty: empty::{},
	}`

	first := mustNormalize(t, src)
	second := mustNormalize(t, first.String())

	if diff := cmp.Diff(first.Modules(), second.Modules()); diff != "" {
		t.Errorf("re-normalized table differs (-first +second):\n%s", diff)
	}
	if first.Header() != second.Header() {
		t.Errorf("Header = %+v, want %+v", second.Header(), first.Header())
	}
	if first.String() != second.String() {
		t.Errorf("String not stable:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestTable_Immutable(t *testing.T) {
	decls := []schema.ModuleDecl{{
		Name:         "Balances",
		Path:         "balances",
		Capabilities: []schema.Capability{{Kind: schema.KindEvent, Generics: []string{"T"}}},
	}}
	table := NewTable(schema.Header{Runtime: "Runtime"}, decls)

	decls[0].Name = "Changed"
	decls[0].Capabilities[0].Generics[0] = "X"

	got := table.At(0)
	got.Capabilities[0].Kind = schema.KindCall

	again := table.At(0)
	if again.Name != "Balances" {
		t.Errorf("Name = %q, want Balances", again.Name)
	}
	if again.Capabilities[0].Kind != schema.KindEvent {
		t.Errorf("Kind = %v, want Event", again.Capabilities[0].Kind)
	}
	if again.Capabilities[0].Generics[0] != "T" {
		t.Errorf("Generics = %v, want [T]", again.Capabilities[0].Generics)
	}
}

func TestTable_LookupAndEach(t *testing.T) {
	table := mustNormalize(t, header+"{ System: system, Balances: balances, Indices: indices }")

	if _, ok := table.Lookup("Balances"); !ok {
		t.Error("Lookup(Balances) not found")
	}
	if _, ok := table.Lookup("Missing"); ok {
		t.Error("Lookup(Missing) should fail")
	}

	var names []string
	table.Each(func(i int, d schema.ModuleDecl) bool {
		names = append(names, d.Name)
		return i < 1
	})
	if diff := cmp.Diff([]string{"System", "Balances"}, names); diff != "" {
		t.Errorf("Each order (-want +got):\n%s", diff)
	}
}

// -----------------------------------------------------------------------------
// Naming
// -----------------------------------------------------------------------------

func TestNaming(t *testing.T) {
	if got := ConfigFieldName("Balances"); got != "BalancesConfig" {
		t.Errorf("ConfigFieldName = %q, want BalancesConfig", got)
	}
	if got := TypeRef("balances", "Event"); got != "balances::Event" {
		t.Errorf("TypeRef = %q", got)
	}
	if got := TypeRef("test3", "Event", "Runtime", InstanceRef("test3", "Instance1")); got != "test3::Event<Runtime, test3::Instance1>" {
		t.Errorf("TypeRef = %q", got)
	}

	decl := schema.ModuleDecl{Name: "T", Path: "test3", Instance: "Instance2"}
	if diff := cmp.Diff([]string{"Runtime", "test3::Instance2"}, RuntimeParams("Runtime", decl)); diff != "" {
		t.Errorf("RuntimeParams (-want +got):\n%s", diff)
	}
}
