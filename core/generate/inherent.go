package generate

import (
	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/schema"
)

// Inherents lists the inherent providers. A module checks extrinsics of its
// own call variant unless it names another with Inherent(Other).
func Inherents(t *convention.Table) (artifact.InherentSet, error) {
	h := t.Header()
	set := artifact.InherentSet{
		Block:              h.Block,
		UncheckedExtrinsic: h.UncheckedExtrinsic,
		Entries:            []artifact.InherentEntry{},
	}

	t.Each(func(_ int, d schema.ModuleDecl) bool {
		c, ok := d.Find(schema.KindInherent)
		if !ok {
			return true
		}
		source := d.Name
		if c.AltCall != "" {
			source = c.AltCall
		}
		set.Entries = append(set.Entries, artifact.InherentEntry{
			Name:       d.Name,
			Module:     d.Path,
			CallSource: source,
		})
		return true
	})
	return set, nil
}
