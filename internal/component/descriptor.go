package component

import (
	"fmt"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/modules"
	"github.com/junioryono/bindgraph/internal/requirement"
)

// MethodKind classifies a component method.
type MethodKind int

const (
	// ProvisionMethod requests an instance of its return type.
	ProvisionMethod MethodKind = iota

	// ProductionMethod requests a produced value on a production component.
	ProductionMethod

	// MembersInjectionMethod injects the members of its single parameter.
	MembersInjectionMethod

	// SubcomponentFactoryMethod returns a subcomponent directly; its
	// parameters are module requirements of the subcomponent.
	SubcomponentFactoryMethod

	// SubcomponentCreatorMethod returns the creator of a subcomponent.
	SubcomponentCreatorMethod
)

func (k MethodKind) String() string {
	switch k {
	case ProvisionMethod:
		return "provision"
	case ProductionMethod:
		return "production"
	case MembersInjectionMethod:
		return "members injection"
	case SubcomponentFactoryMethod:
		return "subcomponent factory"
	case SubcomponentCreatorMethod:
		return "subcomponent creator"
	default:
		return fmt.Sprintf("MethodKind(%d)", int(k))
	}
}

// Method is a classified abstract method of a component.
type Method struct {
	Method *decl.Method
	Kind   MethodKind

	// Request is nil for subcomponent factory methods.
	Request *binding.DependencyRequest

	// Subcomponent is set for subcomponent factory and creator methods.
	Subcomponent *Descriptor

	// Requirements lists the module requirements passed to a subcomponent
	// factory method, in parameter order.
	Requirements []*requirement.Requirement
}

// Descriptor is the resolved shape of a component or subcomponent. It is not
// modified after construction.
type Descriptor struct {
	Annotation Annotation
	Element    *decl.Element

	Dependencies []*requirement.Requirement
	Modules      []*modules.Descriptor

	// DependenciesByDependencyMethod maps every provision method of a
	// dependency type to that dependency. DependencyMethods holds the same
	// methods in declaration order.
	DependenciesByDependencyMethod map[*decl.Method]*requirement.Requirement
	DependencyMethods              []*decl.Method

	Scopes []string

	SubcomponentsFromModules     []*Descriptor
	SubcomponentsByFactoryMethod map[*decl.Method]*Descriptor
	SubcomponentsByBuilderMethod map[*decl.Method]*Descriptor

	Methods []*Method
	Creator *CreatorDescriptor

	requirements []*requirement.Requirement
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s %s", d.Annotation.Kind, d.Element)
}

// IsProduction reports whether d is a production component or subcomponent.
func (d *Descriptor) IsProduction() bool {
	return d.Annotation.IsProduction()
}

// IsRealComponent is false for fictional module components.
func (d *Descriptor) IsRealComponent() bool {
	return d.Annotation.IsRealComponent()
}

// IsSubcomponent reports whether d describes a subcomponent.
func (d *Descriptor) IsSubcomponent() bool {
	return d.Annotation.IsSubcomponent()
}

// HasScope reports whether scope is one of d's scopes.
func (d *Descriptor) HasScope(scope string) bool {
	for _, s := range d.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ChildComponents returns every direct child, each once: module-declared
// subcomponents first, then those reached through component methods.
func (d *Descriptor) ChildComponents() []*Descriptor {
	var (
		children []*Descriptor
		seen     = make(map[*Descriptor]bool)
	)
	add := func(c *Descriptor) {
		if c != nil && !seen[c] {
			seen[c] = true
			children = append(children, c)
		}
	}
	for _, c := range d.SubcomponentsFromModules {
		add(c)
	}
	for _, m := range d.Methods {
		add(m.Subcomponent)
	}
	return children
}

// EntryPoints returns the component methods that request a key.
func (d *Descriptor) EntryPoints() []*Method {
	var eps []*Method
	for _, m := range d.Methods {
		if m.Request != nil {
			eps = append(eps, m)
		}
	}
	return eps
}

// ModuleTypes returns the elements of d's transitive modules.
func (d *Descriptor) ModuleTypes() []*decl.Element {
	types := make([]*decl.Element, len(d.Modules))
	for i, m := range d.Modules {
		types[i] = m.Element
	}
	return types
}

// Requirements returns every input the component needs: dependencies, module
// requirements and the creator's bound instances, deduplicated by identity.
func (d *Descriptor) Requirements() []*requirement.Requirement {
	return d.requirements
}

// CreatorKind distinguishes builders from factories.
type CreatorKind int

const (
	BuilderCreator CreatorKind = iota
	FactoryCreator
)

func (k CreatorKind) String() string {
	if k == FactoryCreator {
		return "factory"
	}
	return "builder"
}

// CreatorDescriptor describes the builder or factory nested in a component.
type CreatorDescriptor struct {
	Element *decl.Element
	Kind    CreatorKind

	// FactoryMethod is the single method of a factory, or the build method of
	// a builder.
	FactoryMethod *decl.Method

	// Requirements holds the requirements in setter or parameter order.
	Requirements []*requirement.Requirement

	// RequirementsByElement maps each builder setter or factory parameter to
	// its requirement.
	RequirementsByElement map[decl.Entity]*requirement.Requirement
}

// BoundInstances returns the bound-instance requirements of the creator.
func (c *CreatorDescriptor) BoundInstances() []*requirement.Requirement {
	var out []*requirement.Requirement
	for _, r := range c.Requirements {
		if r.Kind() == requirement.BoundInstance {
			out = append(out, r)
		}
	}
	return out
}
