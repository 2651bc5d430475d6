// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/construct/core/compiler"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/events"
	"github.com/artpar/construct/core/storage"
	"github.com/artpar/construct/ports"
)

// ErrNoStore is returned by history queries when persistence is disabled.
var ErrNoStore = errors.New("build store disabled")

// BuildService compiles declarations and records them in the build history.
type BuildService struct {
	compiler *compiler.Compiler
	store    ports.BuildStore
	clock    ports.Clock
	idGen    ports.IDGenerator
	bus      *events.Bus
	logger   zerolog.Logger
}

// BuildDeps contains dependencies for BuildService.
type BuildDeps struct {
	Compiler *compiler.Compiler

	// Store persists builds. Nil disables history.
	Store  ports.BuildStore
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Bus    *events.Bus
	Logger zerolog.Logger
}

// BuildResult is a compiled declaration and its history record.
type BuildResult struct {
	*compiler.Result

	// Build is the stored record. It is zero when the store is disabled.
	Build storage.Build

	// Cached reports that an identical module table was already stored;
	// Build is then the earlier record.
	Cached bool
}

// NewBuildService creates a build service.
func NewBuildService(deps BuildDeps) *BuildService {
	return &BuildService{
		compiler: deps.Compiler,
		store:    deps.Store,
		clock:    deps.Clock,
		idGen:    deps.IDGen,
		bus:      deps.Bus,
		logger:   deps.Logger,
	}
}

// Compile assembles src and stores the result unless an identical table
// was stored before.
func (s *BuildService) Compile(ctx context.Context, src []byte, source string) (*BuildResult, error) {
	res, err := s.compiler.Compile(ctx, src, source)
	if err != nil {
		return nil, err
	}
	out := &BuildResult{Result: res}
	if s.store == nil {
		return out, nil
	}

	if res.Fingerprint != "" {
		prev, err := s.store.FindByFingerprint(ctx, res.Fingerprint)
		switch {
		case err == nil:
			out.Build = prev
			out.Cached = true
			s.publish(ctx, events.BuildCached, prev)
			return out, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("lookup build: %w", err)
		}
	}

	bundle, err := json.Marshal(res.Bundle)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}

	b := storage.Build{
		Runtime:     res.Table.Runtime(),
		Source:      source,
		Fingerprint: res.Fingerprint,
		ModuleCount: res.Table.Len(),
		Bundle:      bundle,
	}
	if s.idGen != nil {
		b.ID = s.idGen.New()
	}
	if s.clock != nil {
		b.CreatedAt = s.clock.Now()
	}
	if err := s.store.Save(ctx, &b); err != nil {
		return nil, fmt.Errorf("save build: %w", err)
	}

	s.logger.Info().
		Str("build_id", b.ID).
		Str("runtime", b.Runtime).
		Int("modules", b.ModuleCount).
		Msg("build saved")
	s.publish(ctx, events.BuildSaved, b)

	out.Build = b
	return out, nil
}

// Normalize parses src and returns its canonical module table.
func (s *BuildService) Normalize(src []byte, filename string) (*convention.Table, error) {
	_, t, err := s.compiler.Parse(src, filename)
	return t, err
}

// Get returns a stored build.
func (s *BuildService) Get(ctx context.Context, id string) (storage.Build, error) {
	if s.store == nil {
		return storage.Build{}, ErrNoStore
	}
	return s.store.Get(ctx, id)
}

// List returns stored builds, newest first.
func (s *BuildService) List(ctx context.Context, opts storage.ListOptions) ([]storage.Build, int64, error) {
	if s.store == nil {
		return nil, 0, ErrNoStore
	}
	return s.store.List(ctx, opts)
}

func (s *BuildService) publish(ctx context.Context, name string, b storage.Build) {
	s.bus.Publish(ctx, events.Event{
		Name:    name,
		Runtime: b.Runtime,
		Source:  b.Source,
		Data:    map[string]any{"build_id": b.ID, "fingerprint": b.Fingerprint},
	})
}
