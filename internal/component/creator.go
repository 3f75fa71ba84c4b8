package component

import (
	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/modules"
	"github.com/junioryono/bindgraph/internal/requirement"
)

// creatorOf finds the single creator nested in e.
func (f *Factory) creatorOf(e *decl.Element, a Annotation) (*CreatorDescriptor, error) {
	kinds := a.creatorMarkers()
	if len(kinds) == 0 {
		return nil, nil
	}
	var found []*decl.Element
	for _, n := range e.Nested {
		if n.CountMarkers(kinds...) > 0 {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, diag.New(diag.IllegalConfiguration, e, found[0], found[1])
	}

	creator := found[0]
	c := &CreatorDescriptor{
		Element:               creator,
		Kind:                  BuilderCreator,
		RequirementsByElement: make(map[decl.Entity]*requirement.Requirement),
	}
	if creator.HasMarker(decl.MarkerComponentFactory) || creator.HasMarker(decl.MarkerSubcomponentFactory) {
		c.Kind = FactoryCreator
	}

	methods := creator.UnimplementedMethods()
	if c.Kind == FactoryCreator {
		if len(methods) != 1 {
			return nil, diag.New(diag.IllegalConfiguration, creator)
		}
		mm := methods[0]
		c.FactoryMethod = mm.Method
		for i, p := range mm.Method.Params {
			r, err := f.creatorRequirement(mm.Method, p, mm.Params[i])
			if err != nil {
				return nil, err
			}
			c.add(p, r)
		}
		return c, nil
	}

	for _, mm := range methods {
		switch len(mm.Params) {
		case 0:
			if c.FactoryMethod != nil {
				return nil, diag.New(diag.IllegalConfiguration, creator, c.FactoryMethod, mm.Method)
			}
			c.FactoryMethod = mm.Method
		case 1:
			r, err := f.creatorRequirement(mm.Method, mm.Method.Params[0], mm.Params[0])
			if err != nil {
				return nil, err
			}
			c.add(mm.Method, r)
		default:
			return nil, diag.New(diag.TooManyParameters, mm.Method)
		}
	}
	if c.FactoryMethod == nil {
		return nil, diag.New(diag.IllegalConfiguration, creator)
	}
	return c, nil
}

func (c *CreatorDescriptor) add(e decl.Entity, r *requirement.Requirement) {
	c.RequirementsByElement[e] = r
	for _, existing := range c.Requirements {
		if existing.Identity() == r.Identity() {
			return
		}
	}
	c.Requirements = append(c.Requirements, r)
}

// creatorRequirement derives the requirement of a builder setter or factory
// parameter: a bound instance when marked, a module requirement for module
// types, a dependency otherwise.
func (f *Factory) creatorRequirement(m *decl.Method, p *decl.Param, t *decl.Type) (*requirement.Requirement, error) {
	if m.HasMarker(decl.MarkerBindsInstance) || p.HasMarker(decl.MarkerBindsInstance) {
		qualified := decl.Entity(p)
		if !p.HasMarker(decl.MarkerQualifier) {
			qualified = m
		}
		key, err := f.keys.ForEntity(qualified, t)
		if err != nil {
			return nil, err
		}
		nullable := m.HasMarker(decl.MarkerNullable) || p.HasMarker(decl.MarkerNullable)
		var source decl.Entity = p
		if len(m.Params) == 1 && !isFactoryMethod(m) {
			source = m
		}
		return f.requirements.ForBoundInstance(t, key, nullable, source)
	}
	if t.IsDeclared() && modules.IsModule(t.Element) {
		return f.requirements.ForModule(t)
	}
	return f.requirements.ForDependency(t)
}

func isFactoryMethod(m *decl.Method) bool {
	return m.Owner != nil &&
		m.Owner.CountMarkers(decl.MarkerComponentFactory, decl.MarkerSubcomponentFactory) > 0
}
