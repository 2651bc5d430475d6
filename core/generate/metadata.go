package generate

import (
	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/schema"
)

// Metadata builds the runtime metadata module list.
//
// Capabilities written before Module in a declaration are leading modifiers.
// A declaration without Module contributes all of its capabilities as leading
// modifiers of the next declaration that has one. Each entry reports the
// carried modifiers, then its own leading modifiers, then the capabilities
// after Module. Modifiers still pending after the last declaration are dropped.
func Metadata(t *convention.Table) (artifact.Metadata, error) {
	md := artifact.Metadata{
		Runtime: t.Runtime(),
		Modules: []artifact.MetadataModule{},
	}

	var leading []string
	t.Each(func(_ int, d schema.ModuleDecl) bool {
		idx := d.Index(schema.KindModule)
		if idx < 0 {
			leading = append(leading, kindNames(d.Capabilities)...)
			return true
		}

		with := make([]string, 0, len(leading)+len(d.Capabilities)-1)
		with = append(with, leading...)
		with = append(with, kindNames(d.Capabilities[:idx])...)
		with = append(with, kindNames(d.Capabilities[idx+1:])...)

		md.Modules = append(md.Modules, artifact.MetadataModule{
			Module:   d.Path,
			Instance: d.Instance,
			Name:     d.Name,
			With:     with,
		})
		leading = nil
		return true
	})
	return md, nil
}

func kindNames(caps []schema.Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.Kind.String()
	}
	return names
}
