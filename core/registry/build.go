package registry

import (
	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/schema"
)

// FindSystem returns the module bound as System. Exactly one such module
// must exist.
func FindSystem(t *convention.Table) (schema.ModuleDecl, error) {
	var found []schema.ModuleDecl
	t.Each(func(_ int, d schema.ModuleDecl) bool {
		if d.Name == convention.SystemName {
			found = append(found, d)
		}
		return true
	})

	switch len(found) {
	case 0:
		return schema.ModuleDecl{}, &MissingSystemError{Name: convention.SystemName}
	case 1:
		return found[0], nil
	default:
		paths := make([]string, len(found))
		for i, d := range found {
			paths[i] = KeyOf(d).String()
		}
		return schema.ModuleDecl{}, &DuplicateSystemError{Name: convention.SystemName, Modules: paths}
	}
}

// Build registers every module of the table and returns the module set.
//
// Every declaration gets a binding, including modules without a Module
// capability and modules with no capabilities at all.
func Build(t *convention.Table) (artifact.ModuleSet, error) {
	system, err := FindSystem(t)
	if err != nil {
		return artifact.ModuleSet{}, err
	}

	reg := New()
	for _, d := range t.Modules() {
		if err := reg.Register(d); err != nil {
			return artifact.ModuleSet{}, err
		}
	}

	runtime := t.Runtime()
	set := artifact.ModuleSet{
		Runtime:    runtime,
		System:     system.Name,
		Bindings:   make([]artifact.ModuleBinding, 0, reg.Len()),
		AllModules: make([]string, 0, reg.Len()),
	}
	set.AllModules = append(set.AllModules, system.Name)

	for _, d := range reg.List() {
		set.Bindings = append(set.Bindings, artifact.ModuleBinding{
			Name:     d.Name,
			Module:   d.Path,
			Instance: d.Instance,
			Type:     convention.TypeRef(d.Path, "Module", convention.RuntimeParams(runtime, d)...),
		})
		if d.Name != system.Name {
			set.AllModules = append(set.AllModules, d.Name)
		}
	}
	return set, nil
}
