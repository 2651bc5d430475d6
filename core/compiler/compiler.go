// Package compiler assembles a runtime from its declaration.
//
// A compile parses the declaration, normalizes every entry into a module
// table and runs the artifact generators over the table. Lifecycle events go
// to the event bus; timings go to the observer.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/events"
	"github.com/artpar/construct/core/generate"
	"github.com/artpar/construct/core/registry"
	"github.com/artpar/construct/core/schema"
	"github.com/artpar/construct/ports"
)

// Outcome labels reported to the observer.
const (
	OutcomeOK           = "ok"
	OutcomeGrammarError = "grammar_error"
	OutcomeSystemError  = "system_error"
	OutcomeConflict     = "conflict"
	OutcomeCanceled     = "canceled"
	OutcomeError        = "error"
)

// Options configures a Compiler.
type Options struct {
	Logger zerolog.Logger

	// Bus receives compile lifecycle events. Nil disables publishing.
	Bus *events.Bus

	// Observer receives compile and pass timings. Nil discards them.
	Observer ports.CompileObserver

	// Fingerprinter hashes the canonical module table. Nil leaves
	// Result.Fingerprint empty.
	Fingerprinter ports.Fingerprinter

	// Parallelism bounds concurrently running generator passes.
	Parallelism int
}

// Result is a successful assembly.
type Result struct {
	File        *schema.File
	Table       *convention.Table
	Bundle      *artifact.Bundle
	Fingerprint string
	Duration    time.Duration
}

// Compiler runs the parse, normalize and generate stages.
// It is safe for concurrent use.
type Compiler struct {
	logger      zerolog.Logger
	bus         *events.Bus
	observer    ports.CompileObserver
	fingerprint ports.Fingerprinter
	parallelism atomic.Int64
}

// New creates a compiler.
func New(opts Options) *Compiler {
	observer := opts.Observer
	if observer == nil {
		observer = ports.NopObserver{}
	}
	c := &Compiler{
		logger:      opts.Logger,
		bus:         opts.Bus,
		observer:    observer,
		fingerprint: opts.Fingerprinter,
	}
	c.parallelism.Store(int64(opts.Parallelism))
	return c
}

// SetParallelism changes the pass bound for subsequent compiles.
func (c *Compiler) SetParallelism(n int) {
	c.parallelism.Store(int64(n))
}

// Parse parses and normalizes a declaration without generating artifacts.
func (c *Compiler) Parse(src []byte, filename string) (*schema.File, *convention.Table, error) {
	f, err := schema.Parse(src, filename)
	if err != nil {
		return nil, nil, err
	}
	t, err := convention.Normalize(f)
	if err != nil {
		return nil, nil, err
	}
	return f, t, nil
}

// Compile assembles the runtime declared in src.
// Any error aborts the whole assembly; no partial bundle is returned.
func (c *Compiler) Compile(ctx context.Context, src []byte, filename string) (*Result, error) {
	start := time.Now()
	log := c.logger.With().Str("source", filename).Logger()

	c.bus.Publish(ctx, events.Event{Name: events.CompileStarted, Source: filename})

	f, t, err := c.Parse(src, filename)
	if err != nil {
		return nil, c.fail(ctx, log, "", filename, start, err)
	}
	runtime := t.Runtime()

	bundle, err := generate.All(ctx, t, generate.Options{
		Parallelism: int(c.parallelism.Load()),
		OnPass: func(name string, d time.Duration, err error) {
			c.observer.ObservePass(name, d, err)
			if !c.bus.HasSubscribers(events.PassFinished) {
				return
			}
			c.bus.Publish(ctx, events.Event{
				Name:    events.PassFinished,
				Runtime: runtime,
				Source:  filename,
				Data:    map[string]any{"pass": name, "duration": d, "ok": err == nil},
			})
		},
	})
	if err != nil {
		return nil, c.fail(ctx, log, runtime, filename, start, err)
	}

	res := &Result{
		File:     f,
		Table:    t,
		Bundle:   bundle,
		Duration: time.Since(start),
	}
	if c.fingerprint != nil {
		res.Fingerprint = c.fingerprint.Fingerprint([]byte(t.String()))
	}

	c.observer.ObserveCompile(runtime, OutcomeOK, t.Len(), res.Duration)
	c.bus.Publish(ctx, events.Event{
		Name:    events.CompileFinished,
		Runtime: runtime,
		Source:  filename,
		Data: map[string]any{
			"modules":     t.Len(),
			"fingerprint": res.Fingerprint,
			"duration":    res.Duration,
		},
	})

	log.Debug().
		Str("runtime", runtime).
		Int("modules", t.Len()).
		Dur("duration", res.Duration).
		Msg("runtime assembled")

	return res, nil
}

// CompileFile reads and assembles a declaration file.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.Compile(ctx, src, path)
}

func (c *Compiler) fail(ctx context.Context, log zerolog.Logger, runtime, filename string, start time.Time, err error) error {
	outcome := Outcome(err)
	c.observer.ObserveCompile(runtime, outcome, 0, time.Since(start))
	c.bus.Publish(ctx, events.Event{
		Name:    events.CompileFailed,
		Runtime: runtime,
		Source:  filename,
		Data:    map[string]any{"outcome": outcome, "error": err.Error()},
	})
	log.Debug().Err(err).Str("outcome", outcome).Msg("assembly failed")
	return err
}

// Outcome classifies a compile error.
func Outcome(err error) string {
	var (
		grammar   *schema.GrammarError
		missing   *registry.MissingSystemError
		duplicate *registry.DuplicateSystemError
		conflict  *registry.ConflictError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &grammar):
		return OutcomeGrammarError
	case errors.As(err, &missing), errors.As(err, &duplicate):
		return OutcomeSystemError
	case errors.As(err, &conflict):
		return OutcomeConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
