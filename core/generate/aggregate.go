package generate

import (
	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/registry"
	"github.com/artpar/construct/core/schema"
)

// Events builds the outer Event enum.
func Events(t *convention.Table) (artifact.OuterEnum, error) {
	return aggregate(t, schema.KindEvent)
}

// Origins builds the outer Origin enum.
func Origins(t *convention.Table) (artifact.OuterEnum, error) {
	return aggregate(t, schema.KindOrigin)
}

// aggregate builds an outer enum for kind.
//
// The system module always provides variant 0 under its module path,
// whatever capabilities it declares: system::Event for events and
// system::Origin<Runtime> for origins. Every other module declaring kind
// follows in declaration order.
func aggregate(t *convention.Table, kind schema.Kind) (artifact.OuterEnum, error) {
	system, err := registry.FindSystem(t)
	if err != nil {
		return artifact.OuterEnum{}, err
	}

	runtime := t.Runtime()
	enum := artifact.OuterEnum{
		Name:     kind.String(),
		Runtime:  runtime,
		System:   system.Path,
		Variants: []artifact.EnumVariant{systemVariant(runtime, system, kind)},
	}

	t.Each(func(_ int, d schema.ModuleDecl) bool {
		if d.Name == convention.SystemName {
			return true
		}
		c, ok := d.Find(kind)
		if !ok {
			return true
		}
		v := artifact.EnumVariant{
			Index:    len(enum.Variants),
			Module:   d.Path,
			Instance: d.Instance,
			Generic:  c.Generic(),
		}
		if v.Generic {
			v.Type = convention.TypeRef(d.Path, kind.String(), convention.RuntimeParams(runtime, d)...)
		} else {
			v.Type = convention.TypeRef(d.Path, kind.String())
		}
		enum.Variants = append(enum.Variants, v)
		return true
	})
	return enum, nil
}

func systemVariant(runtime string, system schema.ModuleDecl, kind schema.Kind) artifact.EnumVariant {
	v := artifact.EnumVariant{Index: 0, Module: system.Path}
	if kind == schema.KindOrigin {
		v.Generic = true
		v.Type = convention.TypeRef(system.Path, kind.String(), runtime)
	} else {
		v.Type = convention.TypeRef(system.Path, kind.String())
	}
	return v
}
