// Package generate derives the runtime artifacts from a module table.
//
// Each generator is a pure function of the table. All runs them concurrently;
// the table is immutable, so the passes share it without coordination.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/registry"
)

// DefaultParallelism bounds the number of concurrently running passes.
const DefaultParallelism = 4

// Options configures All.
type Options struct {
	// Parallelism bounds concurrently running passes. Zero uses DefaultParallelism.
	Parallelism int

	// OnPass is called after each pass with its name, duration and error.
	// It may be called concurrently.
	OnPass func(name string, d time.Duration, err error)
}

// PassError wraps the error of a single generator pass.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

type pass struct {
	name string
	run  func(t *convention.Table, b *artifact.Bundle) error
}

// passes lists the generators in reporting order. Each writes a distinct
// field of the bundle.
var passes = []pass{
	{artifact.NameEvent, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.Event, err = Events(t)
		return err
	}},
	{artifact.NameOrigin, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.Origin, err = Origins(t)
		return err
	}},
	{artifact.NameModules, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.Modules, err = Modules(t)
		return err
	}},
	{artifact.NameCall, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.Call, err = Calls(t)
		return err
	}},
	{artifact.NameMetadata, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.Metadata, err = Metadata(t)
		return err
	}},
	{artifact.NameGenesis, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.Genesis, err = Genesis(t)
		return err
	}},
	{artifact.NameInherent, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.Inherent, err = Inherents(t)
		return err
	}},
	{artifact.NameValidateUnsigned, func(t *convention.Table, b *artifact.Bundle) (err error) {
		b.ValidateUnsigned, err = Unsigned(t)
		return err
	}},
}

// All runs every generator over the table and assembles the bundle.
//
// A missing or duplicate System module is reported once, before any pass runs.
// Otherwise every pass runs to completion and their errors are joined in pass
// order, so the result does not depend on scheduling.
func All(ctx context.Context, t *convention.Table, opts Options) (*artifact.Bundle, error) {
	if _, err := registry.FindSystem(t); err != nil {
		return nil, err
	}

	limit := opts.Parallelism
	if limit <= 0 {
		limit = DefaultParallelism
	}

	bundle := &artifact.Bundle{Runtime: RuntimeInfo(t)}
	errs := make([]error, len(passes))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range passes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			start := time.Now()
			err := p.run(t, bundle)
			if opts.OnPass != nil {
				opts.OnPass(p.name, time.Since(start), err)
			}
			if err != nil {
				errs[i] = &PassError{Pass: p.name, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return bundle, nil
}

// RuntimeInfo describes the runtime header of the table.
func RuntimeInfo(t *convention.Table) artifact.RuntimeInfo {
	h := t.Header()
	return artifact.RuntimeInfo{
		Name:               h.Runtime,
		Block:              h.Block,
		NodeBlock:          h.NodeBlock,
		UncheckedExtrinsic: h.UncheckedExtrinsic,
	}
}

// Modules binds every module to the runtime.
func Modules(t *convention.Table) (artifact.ModuleSet, error) {
	return registry.Build(t)
}
