package component

import (
	"fmt"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/modules"
)

// Kind is the kind of component annotation a descriptor was built from.
type Kind int

const (
	Component Kind = iota
	Subcomponent
	ProductionComponent
	ProductionSubcomponent

	// ModuleComponent is a fictional component standing in for a module
	// whose bindings are validated in isolation.
	ModuleComponent
	ProducerModuleComponent
)

func (k Kind) String() string {
	switch k {
	case Component:
		return "component"
	case Subcomponent:
		return "subcomponent"
	case ProductionComponent:
		return "production component"
	case ProductionSubcomponent:
		return "production subcomponent"
	case ModuleComponent:
		return "module"
	case ProducerModuleComponent:
		return "producer module"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Annotation is the component-defining marker of an element.
type Annotation struct {
	Kind         Kind
	Modules      []*decl.Element
	Dependencies []*decl.Type
}

// IsRealComponent is false for fictional module components.
func (a Annotation) IsRealComponent() bool {
	return a.Kind != ModuleComponent && a.Kind != ProducerModuleComponent
}

// IsProduction reports whether the component is a production variant.
func (a Annotation) IsProduction() bool {
	return a.Kind == ProductionComponent || a.Kind == ProductionSubcomponent || a.Kind == ProducerModuleComponent
}

// IsSubcomponent reports whether the annotation declares a subcomponent.
func (a Annotation) IsSubcomponent() bool {
	return a.Kind == Subcomponent || a.Kind == ProductionSubcomponent
}

// creatorMarkers are the markers a nested creator of this component carries.
func (a Annotation) creatorMarkers() []decl.MarkerKind {
	switch {
	case a.IsSubcomponent():
		return []decl.MarkerKind{decl.MarkerSubcomponentBuilder, decl.MarkerSubcomponentFactory}
	case a.IsRealComponent():
		return []decl.MarkerKind{decl.MarkerComponentBuilder, decl.MarkerComponentFactory}
	default:
		return nil
	}
}

var markerKinds = map[decl.MarkerKind]Kind{
	decl.MarkerComponent:              Component,
	decl.MarkerSubcomponent:           Subcomponent,
	decl.MarkerProductionComponent:    ProductionComponent,
	decl.MarkerProductionSubcomponent: ProductionSubcomponent,
	decl.MarkerModule:                 ModuleComponent,
	decl.MarkerProducerModule:         ProducerModuleComponent,
}

// annotationOf reads the first marker of e among kinds.
func annotationOf(e *decl.Element, kinds ...decl.MarkerKind) (Annotation, bool, error) {
	for _, k := range kinds {
		m, ok := e.Marker(k)
		if !ok {
			continue
		}
		a := Annotation{Kind: markerKinds[k], Dependencies: m.TypeList(decl.AttrDependencies)}
		if !a.IsRealComponent() {
			a.Modules = []*decl.Element{e}
			return a, true, nil
		}
		for _, t := range m.TypeList(decl.AttrModules) {
			if !t.IsDeclared() || !modules.IsModule(t.Element) {
				return a, true, diag.New(diag.IllegalConfiguration, e, t)
			}
			a.Modules = append(a.Modules, t.Element)
		}
		return a, true, nil
	}
	return Annotation{}, false, nil
}

// IsSubcomponentElement reports whether e carries a (production) subcomponent
// marker.
func IsSubcomponentElement(e *decl.Element) bool {
	return e != nil && e.CountMarkers(decl.MarkerSubcomponent, decl.MarkerProductionSubcomponent) > 0
}

// IsSubcomponentCreator reports whether e is a builder or factory nested in a
// subcomponent.
func IsSubcomponentCreator(e *decl.Element) bool {
	return e != nil &&
		e.CountMarkers(decl.MarkerSubcomponentBuilder, decl.MarkerSubcomponentFactory) > 0 &&
		IsSubcomponentElement(e.Enclosing)
}
