package resolver

import (
	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/component"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/requirement"
)

func (g *Graph) add(b *binding.Binding) {
	existing, seen := g.explicit[b.Key]
	for _, e := range existing {
		if e.Identity() == b.Identity() {
			return
		}
	}
	if !seen {
		g.explicitKeys = append(g.explicitKeys, b.Key)
	}
	g.explicit[b.Key] = append(existing, b)
}

// collectExplicit gathers every binding the component declares: module
// bindings, dependency provisions, bound instances, module instances, the
// component itself and subcomponent creators.
func (g *Graph) collectExplicit() error {
	d := g.Component
	k := g.resolver.keys

	for _, md := range d.Modules {
		for _, b := range md.Bindings {
			g.add(b)
		}
	}

	for _, r := range d.Dependencies {
		depKey, err := k.ForType(r.Type(), nil)
		if err != nil {
			return err
		}
		g.add(&binding.Binding{Key: depKey, Kind: binding.ComponentDependency, Element: r.Element()})
	}
	for _, m := range d.DependencyMethods {
		r := d.DependenciesByDependencyMethod[m]
		depKey, err := k.ForType(r.Type(), nil)
		if err != nil {
			return err
		}
		key, err := k.ForEntity(m, m.Return)
		if err != nil {
			return err
		}
		g.add(&binding.Binding{
			Key:          key,
			Kind:         binding.ComponentProvision,
			Element:      m,
			Dependencies: []binding.DependencyRequest{{Key: depKey, Kind: binding.Instance, Element: m, Type: r.Type()}},
			Nullable:     m.HasMarker(decl.MarkerNullable),
		})
	}

	if d.Creator != nil {
		for _, r := range d.Creator.BoundInstances() {
			key, _ := r.Key()
			nullable := false
			if p, ok := r.OverrideNullPolicy(); ok && p == requirement.Allow {
				nullable = true
			}
			g.add(&binding.Binding{Key: key, Kind: binding.BoundInstance, Element: r.Source(), Nullable: nullable})
		}
	}

	for _, md := range d.Modules {
		if !g.resolver.modules.RequiresModuleInstance(md.Element) {
			continue
		}
		key, err := k.ForType(md.Element.Type(), nil)
		if err != nil {
			return err
		}
		g.add(&binding.Binding{Key: key, Kind: binding.ModuleInstance, Element: md.Element})
	}

	if d.IsRealComponent() {
		key, err := k.ForType(d.Element.Type(), nil)
		if err != nil {
			return err
		}
		g.add(&binding.Binding{Key: key, Kind: binding.Component, Element: d.Element})
	}

	return g.collectSubcomponentCreators()
}

func (g *Graph) collectSubcomponentCreators() error {
	d := g.Component
	byElement := make(map[*decl.Element]*component.Descriptor, len(d.SubcomponentsFromModules))
	for _, child := range d.SubcomponentsFromModules {
		byElement[child.Element] = child
	}

	added := make(map[*decl.Element]bool)
	addCreator := func(child *component.Descriptor, module *decl.Element) error {
		if added[child.Creator.Element] {
			return nil
		}
		added[child.Creator.Element] = true
		key, err := g.resolver.keys.ForType(child.Creator.Element.Type(), nil)
		if err != nil {
			return err
		}
		g.add(&binding.Binding{Key: key, Kind: binding.SubcomponentCreator, Element: child.Creator.Element, Module: module})
		return nil
	}

	for _, md := range d.Modules {
		for _, sd := range md.Subcomponents {
			child := byElement[sd.Subcomponent]
			if child == nil || child.Creator == nil {
				return diag.New(diag.IllegalConfiguration, sd.Module, sd.Subcomponent)
			}
			if err := addCreator(child, sd.Module); err != nil {
				return err
			}
		}
	}
	for _, m := range d.Methods {
		if m.Kind != component.SubcomponentCreatorMethod || m.Subcomponent.Creator == nil {
			continue
		}
		if err := addCreator(m.Subcomponent, nil); err != nil {
			return err
		}
	}
	return nil
}
