package runtime

import (
	"context"
	"fmt"

	"github.com/artpar/construct/core/artifact"
)

// Initializer is implemented by modules with a block initialization hook.
type Initializer interface {
	OnInitialize(ctx context.Context, n uint64) error
}

// Finalizer is implemented by modules with a block finalization hook.
type Finalizer interface {
	OnFinalize(ctx context.Context, n uint64) error
}

// Executive runs lifecycle hooks over all modules, System first.
type Executive struct {
	order   []string
	modules map[string]any
}

// NewExecutive binds module implementations to a module set. Implementations
// for bindings that do not exist are rejected.
func NewExecutive(set artifact.ModuleSet, modules map[string]any) (*Executive, error) {
	known := make(map[string]bool, len(set.AllModules))
	for _, name := range set.AllModules {
		known[name] = true
	}
	for name := range modules {
		if !known[name] {
			return nil, fmt.Errorf("implementation for unknown module %q", name)
		}
	}
	return &Executive{
		order:   append([]string(nil), set.AllModules...),
		modules: modules,
	}, nil
}

// Order returns the hook order.
func (e *Executive) Order() []string {
	return append([]string(nil), e.order...)
}

// Initialize runs OnInitialize on every implementing module.
func (e *Executive) Initialize(ctx context.Context, n uint64) error {
	for _, name := range e.order {
		if m, ok := e.modules[name].(Initializer); ok {
			if err := m.OnInitialize(ctx, n); err != nil {
				return fmt.Errorf("initialize %s: %w", name, err)
			}
		}
	}
	return nil
}

// Finalize runs OnFinalize on every implementing module.
func (e *Executive) Finalize(ctx context.Context, n uint64) error {
	for _, name := range e.order {
		if m, ok := e.modules[name].(Finalizer); ok {
			if err := m.OnFinalize(ctx, n); err != nil {
				return fmt.Errorf("finalize %s: %w", name, err)
			}
		}
	}
	return nil
}
