package generate

import (
	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/schema"
)

// Genesis builds the aggregated genesis configuration from modules declaring
// Config. Fields keep declaration order, which is also population order.
func Genesis(t *convention.Table) (artifact.GenesisConfig, error) {
	runtime := t.Runtime()
	gc := artifact.GenesisConfig{
		Name:    "GenesisConfig",
		Runtime: runtime,
		Fields:  []artifact.GenesisField{},
	}

	t.Each(func(_ int, d schema.ModuleDecl) bool {
		c, ok := d.Find(schema.KindConfig)
		if !ok {
			return true
		}

		var params []string
		if c.Generic() {
			params = append(params, runtime)
		}
		if d.Instance != "" {
			params = append(params, convention.InstanceRef(d.Path, d.Instance))
		}

		gc.Fields = append(gc.Fields, artifact.GenesisField{
			Field:    convention.ConfigFieldName(d.Name),
			Name:     d.Name,
			Module:   d.Path,
			Instance: d.Instance,
			Generic:  c.Generic(),
			Type:     convention.TypeRef(d.Path, "GenesisConfig", params...),
		})
		return true
	})
	return gc, nil
}
