package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/events"
	"github.com/artpar/construct/core/registry"
	"github.com/artpar/construct/core/schema"
)

const nodeRuntime = `construct_runtime!(
	pub enum Runtime where
		Block = Block,
		NodeBlock = opaque::Block,
		UncheckedExtrinsic = UncheckedExtrinsic
	{
		System: system::{Module, Call, Storage, Config, Event},
		Timestamp: timestamp::{Module, Call, Storage, Inherent},
		Balances: balances,
		Sudo: sudo,
	}
);`

const missingSystem = `pub enum Runtime where Block = Block, NodeBlock = opaque::Block, UncheckedExtrinsic = UncheckedExtrinsic {
	Balances: balances,
}`

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	passes   map[string]int
}

func (o *recordingObserver) ObserveCompile(runtime, outcome string, modules int, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObservePass(pass string, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.passes == nil {
		o.passes = make(map[string]int)
	}
	o.passes[pass]++
}

type lengthFingerprinter struct{}

func (lengthFingerprinter) Fingerprint(data []byte) string {
	return string(rune('a' + len(data)%26))
}

func newTestCompiler(obs *recordingObserver, bus *events.Bus) *Compiler {
	return New(Options{
		Logger:        zerolog.Nop(),
		Bus:           bus,
		Observer:      obs,
		Fingerprinter: lengthFingerprinter{},
	})
}

// -----------------------------------------------------------------------------
// Compile
// -----------------------------------------------------------------------------

func TestCompile(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestCompiler(obs, nil)

	res, err := c.Compile(context.Background(), []byte(nodeRuntime), "node.runtime")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if res.Table.Len() != 4 {
		t.Errorf("Table.Len() = %d, want 4", res.Table.Len())
	}
	if res.File.Filename != "node.runtime" {
		t.Errorf("File.Filename = %q, want node.runtime", res.File.Filename)
	}
	if res.Bundle.Runtime.Name != "Runtime" {
		t.Errorf("Bundle.Runtime.Name = %q, want Runtime", res.Bundle.Runtime.Name)
	}
	if got := res.Bundle.Modules.AllModules; len(got) != 4 || got[0] != "System" {
		t.Errorf("AllModules = %v, want System first of 4", got)
	}
	if res.Fingerprint == "" {
		t.Error("Fingerprint should be set")
	}

	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeOK {
		t.Errorf("outcomes = %v, want [ok]", obs.outcomes)
	}
	if len(obs.passes) != len(artifact.Names) {
		t.Errorf("observed passes = %d, want %d", len(obs.passes), len(artifact.Names))
	}
}

func TestCompile_FingerprintIgnoresSurfaceForm(t *testing.T) {
	c := newTestCompiler(&recordingObserver{}, nil)
	ctx := context.Background()

	bare := `pub enum R where Block = B, NodeBlock = N, UncheckedExtrinsic = U { System: system, Balances: balances }`
	explicit := `pub enum R where Block = B, NodeBlock = N, UncheckedExtrinsic = U {
		System: system::{Module, Call, Storage, Event<T>, Config<T>},
		Balances: balances::{default},
	}`

	a, err := c.Compile(ctx, []byte(bare), "a")
	if err != nil {
		t.Fatalf("Compile(bare) failed: %v", err)
	}
	b, err := c.Compile(ctx, []byte(explicit), "b")
	if err != nil {
		t.Fatalf("Compile(explicit) failed: %v", err)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Errorf("fingerprints differ: %q vs %q", a.Fingerprint, b.Fingerprint)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		outcome string
		check   func(error) bool
	}{
		{
			name:    "grammar",
			src:     "pub enum Runtime {",
			outcome: OutcomeGrammarError,
			check: func(err error) bool {
				var ge *schema.GrammarError
				return errors.As(err, &ge)
			},
		},
		{
			name:    "missing system",
			src:     missingSystem,
			outcome: OutcomeSystemError,
			check: func(err error) bool {
				var me *registry.MissingSystemError
				return errors.As(err, &me)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			res, err := newTestCompiler(obs, nil).Compile(context.Background(), []byte(tt.src), "bad.runtime")
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Error("failed compile should not return a result")
			}
			if !tt.check(err) {
				t.Errorf("error type = %T (%v)", err, err)
			}
			if Outcome(err) != tt.outcome {
				t.Errorf("Outcome() = %q, want %q", Outcome(err), tt.outcome)
			}
			if len(obs.outcomes) != 1 || obs.outcomes[0] != tt.outcome {
				t.Errorf("observed outcomes = %v, want [%s]", obs.outcomes, tt.outcome)
			}
		})
	}
}

func TestCompile_PublishesEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())

	var mu sync.Mutex
	counts := make(map[string]int)
	bus.Subscribe("*", func(ctx context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		counts[e.Name]++
		return nil
	})

	c := newTestCompiler(&recordingObserver{}, bus)
	if _, err := c.Compile(context.Background(), []byte(nodeRuntime), "node.runtime"); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, err := c.Compile(context.Background(), []byte(missingSystem), "bad.runtime"); err == nil {
		t.Fatal("expected error")
	}

	want := map[string]int{
		events.CompileStarted:  2,
		events.CompileFinished: 1,
		events.CompileFailed:   1,
		events.PassFinished:    len(artifact.Names),
	}
	for name, n := range want {
		if counts[name] != n {
			t.Errorf("%s events = %d, want %d", name, counts[name], n)
		}
	}
}

func TestCompile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCompiler(&recordingObserver{}, nil).Compile(ctx, []byte(nodeRuntime), "node.runtime")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if Outcome(err) != OutcomeCanceled {
		t.Errorf("Outcome() = %q, want %q", Outcome(err), OutcomeCanceled)
	}
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.runtime")
	if err := os.WriteFile(path, []byte(nodeRuntime), 0644); err != nil {
		t.Fatal(err)
	}

	c := newTestCompiler(&recordingObserver{}, nil)
	res, err := c.CompileFile(context.Background(), path)
	if err != nil {
		t.Fatalf("CompileFile failed: %v", err)
	}
	if res.File.Filename != path {
		t.Errorf("Filename = %q, want %q", res.File.Filename, path)
	}

	if _, err := c.CompileFile(context.Background(), filepath.Join(dir, "missing.runtime")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestOutcome(t *testing.T) {
	if got := Outcome(nil); got != OutcomeOK {
		t.Errorf("Outcome(nil) = %q, want ok", got)
	}
	if got := Outcome(&registry.ConflictError{}); got != OutcomeConflict {
		t.Errorf("Outcome(conflict) = %q, want conflict", got)
	}
	if got := Outcome(errors.New("disk full")); got != OutcomeError {
		t.Errorf("Outcome(other) = %q, want error", got)
	}
}

// -----------------------------------------------------------------------------
// Watch
// -----------------------------------------------------------------------------

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.runtime")
	if err := os.WriteFile(path, []byte(nodeRuntime), 0644); err != nil {
		t.Fatal(err)
	}

	type outcome struct {
		res *Result
		err error
	}
	results := make(chan outcome, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	c := newTestCompiler(&recordingObserver{}, nil)
	go func() {
		done <- c.Watch(ctx, path, func(res *Result, err error) {
			results <- outcome{res, err}
		})
	}()

	next := func() outcome {
		t.Helper()
		select {
		case o := <-results:
			return o
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for compile")
			return outcome{}
		}
	}

	if o := next(); o.err != nil || o.res.Table.Len() != 4 {
		t.Fatalf("initial compile = %v, %v", o.res, o.err)
	}

	if err := os.WriteFile(path, []byte(missingSystem), 0644); err != nil {
		t.Fatal(err)
	}
	if o := next(); Outcome(o.err) != OutcomeSystemError {
		t.Errorf("recompile error = %v, want system error", o.err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
