package generate

import (
	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/schema"
)

// Unsigned lists the modules validating unsigned transactions, in order.
func Unsigned(t *convention.Table) (artifact.UnsignedSet, error) {
	set := artifact.UnsignedSet{
		Runtime: t.Runtime(),
		Modules: []string{},
	}
	t.Each(func(_ int, d schema.ModuleDecl) bool {
		if d.Has(schema.KindValidateUnsigned) {
			set.Modules = append(set.Modules, d.Name)
		}
		return true
	})
	return set, nil
}
