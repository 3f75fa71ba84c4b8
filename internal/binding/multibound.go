package binding

import (
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
)

// Multibound merges the contributions to an aggregate key into one binding.
// Contributions are deduplicated by identity, keeping the first declaration,
// and keep their declaration order. Distinct map contributions sharing a map
// key fail with DuplicateMapKey. Declarations are skipped; they only allow the
// aggregate to be empty.
func Multibound(key keys.Key, contributions []*Binding) (*Binding, error) {
	kind := MultiboundSet
	if key.Multi == keys.Map {
		kind = MultiboundMap
	}
	agg := &Binding{Key: key, Kind: kind, Contribution: Unique}

	seen := make(map[Identity]bool, len(contributions))
	byMapKey := make(map[string]*Binding)
	for _, c := range contributions {
		if c.Kind.IsDeclaration() {
			continue
		}
		id := c.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true

		if kind == MultiboundMap {
			if prev, dup := byMapKey[c.MapKey]; dup {
				return nil, diag.New(diag.DuplicateMapKey, key, c.MapKey, prev.Element, c.Element)
			}
			byMapKey[c.MapKey] = c
		}
		agg.Contributions = append(agg.Contributions, c)
		agg.Dependencies = append(agg.Dependencies, c.Dependencies...)
	}
	return agg, nil
}
