// Package registry binds declared modules to the runtime.
// It detects conflicting bindings, locates the system module and builds the
// module set used for lifecycle hook ordering.
package registry

import (
	"sync"

	"github.com/artpar/construct/core/schema"
)

// Key identifies a module instance: a module path together with an optional
// instance name. Two bindings may share a path only with distinct instances.
type Key struct {
	Module   string
	Instance string
}

func (k Key) String() string {
	if k.Instance == "" {
		return k.Module
	}
	return k.Module + "::<" + k.Instance + ">"
}

// KeyOf returns the key of a declaration.
func KeyOf(d schema.ModuleDecl) Key {
	return Key{Module: d.Path, Instance: d.Instance}
}

// Registry holds the modules bound to a runtime, in registration order.
type Registry struct {
	mu sync.RWMutex

	// modules by binding name
	modules map[string]schema.ModuleDecl

	// binding names by module instance
	keys map[Key]string

	// binding names in registration order
	order []string
}

// New creates a new registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]schema.ModuleDecl),
		keys:    make(map[Key]string),
	}
}

// Register binds a module. A duplicate binding name or a duplicate module
// instance is rejected with a *ConflictError and leaves the registry unchanged.
func (r *Registry) Register(d schema.ModuleDecl) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conflicts []Conflict
	if existing, exists := r.modules[d.Name]; exists {
		conflicts = append(conflicts, Conflict{
			Type:   ConflictBinding,
			Key:    d.Name,
			Claims: []string{existing.String(), d.String()},
		})
	}
	key := KeyOf(d)
	if existing, exists := r.keys[key]; exists {
		conflicts = append(conflicts, Conflict{
			Type:   ConflictInstance,
			Key:    key.String(),
			Claims: []string{existing, d.Name},
		})
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}

	r.modules[d.Name] = d
	r.keys[key] = d.Name
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns a module by binding name.
func (r *Registry) Get(name string) (schema.ModuleDecl, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.modules[name]
	return d, ok
}

// Lookup returns the binding name of a module instance.
func (r *Registry) Lookup(key Key) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.keys[key]
	return name, ok
}

// List returns all modules in registration order.
func (r *Registry) List() []schema.ModuleDecl {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]schema.ModuleDecl, 0, len(r.order))
	for _, name := range r.order {
		modules = append(modules, r.modules[name])
	}
	return modules
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
