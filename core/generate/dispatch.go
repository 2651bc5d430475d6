package generate

import (
	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/schema"
)

// Calls builds the outer Call enum.
//
// Variant indices are assigned by position among the modules declaring Call.
// Encoded calls carry these indices; keep the declaration order of Call
// modules stable across releases or previously encoded calls will decode to
// a different module.
func Calls(t *convention.Table) (artifact.OuterCall, error) {
	runtime := t.Runtime()
	call := artifact.OuterCall{
		Name:     "Call",
		Runtime:  runtime,
		Origin:   "Origin",
		Variants: []artifact.CallVariant{},
	}

	t.Each(func(_ int, d schema.ModuleDecl) bool {
		if !d.Has(schema.KindCall) {
			return true
		}
		call.Variants = append(call.Variants, artifact.CallVariant{
			Index:    len(call.Variants),
			Name:     d.Name,
			Module:   d.Path,
			Instance: d.Instance,
			Type:     convention.TypeRef(d.Path, "Call", convention.RuntimeParams(runtime, d)...),
		})
		return true
	})
	return call, nil
}
