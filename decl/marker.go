package decl

import (
	"fmt"
	"strings"
)

// MarkerKind identifies a declarative marker (annotation) recognized by the
// graph builder. The set is closed: everything the core reacts to is listed
// here, and classification switches over it exhaustively.
type MarkerKind int

const (
	// MarkerUnknown is a marker the core does not interpret.
	MarkerUnknown MarkerKind = iota

	// Injection sites.
	MarkerInject
	MarkerAssistedInject

	// Meta markers. Name carries the identity of the concrete qualifier or scope.
	MarkerQualifier
	MarkerScope

	// Component boundaries.
	MarkerComponent
	MarkerSubcomponent
	MarkerProductionComponent
	MarkerProductionSubcomponent

	// Modules.
	MarkerModule
	MarkerProducerModule

	// Component creators.
	MarkerComponentBuilder
	MarkerComponentFactory
	MarkerSubcomponentBuilder
	MarkerSubcomponentFactory

	// Binding methods.
	MarkerProvides
	MarkerProduces
	MarkerBinds
	MarkerMultibinds
	MarkerBindsOptionalOf

	// Multibinding contributions.
	MarkerIntoSet
	MarkerElementsIntoSet
	MarkerIntoMap
	MarkerMapKey

	// Creator parameters and nullability.
	MarkerBindsInstance
	MarkerNullable
)

var markerNames = [...]string{
	MarkerUnknown:                "Unknown",
	MarkerInject:                 "Inject",
	MarkerAssistedInject:         "AssistedInject",
	MarkerQualifier:              "Qualifier",
	MarkerScope:                  "Scope",
	MarkerComponent:              "Component",
	MarkerSubcomponent:           "Subcomponent",
	MarkerProductionComponent:    "ProductionComponent",
	MarkerProductionSubcomponent: "ProductionSubcomponent",
	MarkerModule:                 "Module",
	MarkerProducerModule:         "ProducerModule",
	MarkerComponentBuilder:       "Component.Builder",
	MarkerComponentFactory:       "Component.Factory",
	MarkerSubcomponentBuilder:    "Subcomponent.Builder",
	MarkerSubcomponentFactory:    "Subcomponent.Factory",
	MarkerProvides:               "Provides",
	MarkerProduces:               "Produces",
	MarkerBinds:                  "Binds",
	MarkerMultibinds:             "Multibinds",
	MarkerBindsOptionalOf:        "BindsOptionalOf",
	MarkerIntoSet:                "IntoSet",
	MarkerElementsIntoSet:        "ElementsIntoSet",
	MarkerIntoMap:                "IntoMap",
	MarkerMapKey:                 "MapKey",
	MarkerBindsInstance:          "BindsInstance",
	MarkerNullable:               "Nullable",
}

// String returns the marker's display name.
func (k MarkerKind) String() string {
	if k >= 0 && int(k) < len(markerNames) {
		return markerNames[k]
	}
	return fmt.Sprintf("MarkerKind(%d)", int(k))
}

// IsBindingMethod reports whether a method carrying this marker declares a
// binding: provision, production, delegation, multibinding or optional binding.
func (k MarkerKind) IsBindingMethod() bool {
	switch k {
	case MarkerProvides, MarkerProduces, MarkerBinds, MarkerMultibinds, MarkerBindsOptionalOf:
		return true
	}
	return false
}

// IsContribution reports whether the marker turns a binding into a
// multibinding contribution.
func (k MarkerKind) IsContribution() bool {
	switch k {
	case MarkerIntoSet, MarkerElementsIntoSet, MarkerIntoMap:
		return true
	}
	return false
}

// IsCreator reports whether the marker declares a component or subcomponent
// builder/factory.
func (k MarkerKind) IsCreator() bool {
	switch k {
	case MarkerComponentBuilder, MarkerComponentFactory, MarkerSubcomponentBuilder, MarkerSubcomponentFactory:
		return true
	}
	return false
}

// IsSubcomponent reports whether the marker declares a (production) subcomponent.
func (k MarkerKind) IsSubcomponent() bool {
	return k == MarkerSubcomponent || k == MarkerProductionSubcomponent
}

// Marker attribute names holding type lists.
const (
	AttrModules       = "modules"
	AttrDependencies  = "dependencies"
	AttrIncludes      = "includes"
	AttrSubcomponents = "subcomponents"
)

// Marker is one declarative marker attached to a declaration.
type Marker struct {
	Kind MarkerKind

	// Name is the identity of qualifier, scope and map-key markers
	// (for map keys, the canonical map key type).
	Name string

	// Value is the single value argument, e.g. a named qualifier's name or a
	// map key's value.
	Value string

	// Types holds type-list attributes such as modules or includes.
	Types map[string][]*Type

	// Unresolved is set by the introspection layer when the marker refers to
	// something that could not be resolved at analysis time.
	Unresolved bool
}

// TypeList returns the type-list attribute attr.
func (m *Marker) TypeList(attr string) []*Type {
	if m == nil || m.Types == nil {
		return nil
	}
	return m.Types[attr]
}

// String renders the marker as it would be written in source.
func (m Marker) String() string {
	var b strings.Builder
	b.WriteByte('@')
	if m.Name != "" {
		b.WriteString(m.Name)
	} else {
		b.WriteString(m.Kind.String())
	}
	if m.Value != "" {
		fmt.Fprintf(&b, "(%q)", m.Value)
	}
	return b.String()
}

// Qualifier returns a qualifier marker with the given identity and value.
func Qualifier(name, value string) Marker {
	return Marker{Kind: MarkerQualifier, Name: name, Value: value}
}

// Named returns the conventional string qualifier.
func Named(value string) Marker {
	return Qualifier("Named", value)
}

// ScopeMarker returns a scope marker with the given identity.
func ScopeMarker(name string) Marker {
	return Marker{Kind: MarkerScope, Name: name}
}

// MapKey returns a map key marker. keyType is the canonical key type.
func MapKey(keyType, value string) Marker {
	return Marker{Kind: MarkerMapKey, Name: keyType, Value: value}
}

// ComponentMarker returns a marker of the given component kind listing modules
// and dependencies.
func ComponentMarker(kind MarkerKind, modules, dependencies []*Element) Marker {
	return Marker{
		Kind: kind,
		Types: map[string][]*Type{
			AttrModules:      typesOf(modules),
			AttrDependencies: typesOf(dependencies),
		},
	}
}

// ModuleMarker returns a module marker of the given kind listing included
// modules and declared subcomponents.
func ModuleMarker(kind MarkerKind, includes, subcomponents []*Element) Marker {
	return Marker{
		Kind: kind,
		Types: map[string][]*Type{
			AttrIncludes:      typesOf(includes),
			AttrSubcomponents: typesOf(subcomponents),
		},
	}
}

func typesOf(elements []*Element) []*Type {
	if len(elements) == 0 {
		return nil
	}
	types := make([]*Type, len(elements))
	for i, e := range elements {
		types[i] = e.Type()
	}
	return types
}

// Annotated holds the markers of a declaration. It is embedded in every
// declaration type.
type Annotated struct {
	Markers []Marker
}

// Annotations returns the marker holder itself.
func (a *Annotated) Annotations() *Annotated {
	return a
}

// HasMarker reports whether a marker of the given kind is present.
func (a *Annotated) HasMarker(kind MarkerKind) bool {
	for i := range a.Markers {
		if a.Markers[i].Kind == kind {
			return true
		}
	}
	return false
}

// Marker returns the first marker of the given kind.
func (a *Annotated) Marker(kind MarkerKind) (*Marker, bool) {
	for i := range a.Markers {
		if a.Markers[i].Kind == kind {
			return &a.Markers[i], true
		}
	}
	return nil, false
}

// MarkersOf returns every marker of the given kind, in declaration order.
func (a *Annotated) MarkersOf(kind MarkerKind) []*Marker {
	var found []*Marker
	for i := range a.Markers {
		if a.Markers[i].Kind == kind {
			found = append(found, &a.Markers[i])
		}
	}
	return found
}

// CountMarkers returns how many markers of the given kinds are present.
func (a *Annotated) CountMarkers(kinds ...MarkerKind) int {
	n := 0
	for i := range a.Markers {
		for _, k := range kinds {
			if a.Markers[i].Kind == k {
				n++
				break
			}
		}
	}
	return n
}

// AddMarker appends markers.
func (a *Annotated) AddMarker(markers ...Marker) {
	a.Markers = append(a.Markers, markers...)
}
