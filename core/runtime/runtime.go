// Package runtime executes an assembled runtime against module implementations.
// It provides the behavior of the generated dispatchers: call encoding,
// inherent creation and checking, unsigned validation, genesis population and
// lifecycle hooks.
package runtime

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/construct/core/artifact"
)

// Config configures the runtime.
type Config struct {
	// Logger for dispatch tracing.
	Logger zerolog.Logger
}

// Runtime is an assembled runtime bound to module implementations.
type Runtime struct {
	bundle    *artifact.Bundle
	codec     *CallCodec
	inherents *InherentDispatcher
	unsigned  *UnsignedDispatcher
	executive *Executive
	genesis   map[string]GenesisBuilder
	logger    zerolog.Logger
}

// New binds implementations, keyed by module binding name, to a bundle.
//
// Modules declaring Inherent must implement InherentProvider and modules
// declaring ValidateUnsigned must implement UnsignedValidator. Initializer,
// Finalizer and GenesisBuilder are optional.
func New(bundle *artifact.Bundle, modules map[string]any, cfg Config) (*Runtime, error) {
	codec, err := NewCallCodec(bundle.Call)
	if err != nil {
		return nil, err
	}

	providers := make(map[string]InherentProvider)
	validators := make(map[string]UnsignedValidator)
	builders := make(map[string]GenesisBuilder)
	for name, impl := range modules {
		if p, ok := impl.(InherentProvider); ok {
			providers[name] = p
		}
		if v, ok := impl.(UnsignedValidator); ok {
			validators[name] = v
		}
	}
	for _, f := range bundle.Genesis.Fields {
		if b, ok := modules[f.Name].(GenesisBuilder); ok {
			builders[f.Field] = b
		}
	}

	inherents, err := NewInherentDispatcher(bundle.Inherent, providers)
	if err != nil {
		return nil, err
	}
	unsigned, err := NewUnsignedDispatcher(bundle.ValidateUnsigned, validators)
	if err != nil {
		return nil, err
	}
	executive, err := NewExecutive(bundle.Modules, modules)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		bundle:    bundle,
		codec:     codec,
		inherents: inherents,
		unsigned:  unsigned,
		executive: executive,
		genesis:   builders,
		logger:    cfg.Logger.With().Str("runtime", bundle.Runtime.Name).Logger(),
	}, nil
}

// Codec returns the call codec.
func (r *Runtime) Codec() *CallCodec {
	return r.codec
}

// HookOrder returns the order lifecycle hooks run in.
func (r *Runtime) HookOrder() []string {
	return r.executive.Order()
}

// Genesis builds the initial state.
func (r *Runtime) Genesis() (*Storage, error) {
	s, err := BuildGenesis(r.bundle.Genesis, r.genesis)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Int("keys", len(s.Keys())).Msg("genesis built")
	return s, nil
}

// CreateInherents returns the inherent extrinsics for a new block.
func (r *Runtime) CreateInherents(data InherentData) []Extrinsic {
	return r.inherents.CreateExtrinsics(data)
}

// CheckInherents verifies the inherents of a block.
func (r *Runtime) CheckInherents(block Block, data InherentData) CheckResult {
	res := r.inherents.CheckInherents(block, data)
	for _, e := range res.Errors {
		r.logger.Warn().
			Err(e.Err).
			Str("module", e.Module).
			Uint64("block", block.Number).
			Int("extrinsic", e.Index).
			Msg("inherent check failed")
	}
	return res
}

// ValidateUnsigned validates an unsigned call.
func (r *Runtime) ValidateUnsigned(call Call) TransactionValidity {
	v := r.unsigned.Validate(call)
	r.logger.Debug().
		Str("call", call.Module).
		Str("outcome", v.Outcome.String()).
		Str("module", v.Module).
		Msg("unsigned call validated")
	return v
}

// ExecuteBlock runs the initialization hooks, checks the block's inherents and
// runs the finalization hooks. Every extrinsic must decode to a known call.
func (r *Runtime) ExecuteBlock(ctx context.Context, block Block, data InherentData) error {
	for i, xt := range block.Extrinsics {
		if _, ok := r.codec.Variant(xt.Call.Module); !ok {
			return fmt.Errorf("extrinsic %d: %w: %q", i, ErrUnknownCall, xt.Call.Module)
		}
	}

	if err := r.executive.Initialize(ctx, block.Number); err != nil {
		return err
	}
	if res := r.CheckInherents(block, data); !res.OK() {
		return res.Err()
	}
	if err := r.executive.Finalize(ctx, block.Number); err != nil {
		return err
	}

	r.logger.Debug().
		Uint64("block", block.Number).
		Int("extrinsics", len(block.Extrinsics)).
		Msg("block executed")
	return nil
}
