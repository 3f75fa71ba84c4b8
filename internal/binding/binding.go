// Package binding models the producers of keys and the registry of bindings
// discovered from injection sites.
package binding

import (
	"fmt"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/keys"
)

// Kind is the kind of a binding. The set is closed.
type Kind int

const (
	Injection Kind = iota
	Provision
	Production
	Delegate
	BoundInstance
	ModuleInstance
	ComponentDependency
	ComponentProvision
	Component
	SubcomponentCreator
	MultiboundSet
	MultiboundMap
	Optional
	MembersInjection
	MultibindingDeclaration
	OptionalDeclaration
)

var kindNames = [...]string{
	Injection:               "injection",
	Provision:               "provision",
	Production:              "production",
	Delegate:                "delegate",
	BoundInstance:           "bound instance",
	ModuleInstance:          "module instance",
	ComponentDependency:     "component dependency",
	ComponentProvision:      "component provision",
	Component:               "component",
	SubcomponentCreator:     "subcomponent creator",
	MultiboundSet:           "multibound set",
	MultiboundMap:           "multibound map",
	Optional:                "optional",
	MembersInjection:        "members injection",
	MultibindingDeclaration: "multibinding declaration",
	OptionalDeclaration:     "optional declaration",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsDeclaration reports whether bindings of this kind only declare that a key
// may be bound, without producing a value themselves.
func (k Kind) IsDeclaration() bool {
	return k == MultibindingDeclaration || k == OptionalDeclaration
}

// ContributionType says how a binding contributes to its key.
type ContributionType int

const (
	Unique ContributionType = iota
	IntoSet
	ElementsIntoSet
	IntoMap
)

func (c ContributionType) String() string {
	switch c {
	case IntoSet:
		return "into set"
	case ElementsIntoSet:
		return "elements into set"
	case IntoMap:
		return "into map"
	default:
		return "unique"
	}
}

// IsMultibinding reports whether c contributes to an aggregate.
func (c ContributionType) IsMultibinding() bool {
	return c != Unique
}

// Binding produces a value for Key.
type Binding struct {
	Key          keys.Key
	Kind         Kind
	Contribution ContributionType

	// Element is the declaring entity: a constructor, method, field, element
	// or creator parameter.
	Element decl.Entity

	// Module is the contributing module, nil for bindings not declared in a
	// module.
	Module *decl.Element

	Dependencies []DependencyRequest

	// Scope is the canonical scope marker, empty when unscoped.
	Scope string

	// MapKey is the contributed key of an into-map contribution.
	MapKey string

	Nullable bool

	// Contributions lists the merged contributions of an aggregate binding,
	// in first-declared order.
	Contributions []*Binding
}

// Identity is the contribution identity used to deduplicate aggregates.
type Identity struct {
	Kind    Kind
	Element decl.Entity
	Key     keys.Key
	Module  *decl.Element
}

// Identity returns the contribution identity of b.
func (b *Binding) Identity() Identity {
	return Identity{Kind: b.Kind, Element: b.Element, Key: b.Key, Module: b.Module}
}

// IsScoped reports whether b carries a scope.
func (b *Binding) IsScoped() bool {
	return b.Scope != ""
}

func (b *Binding) String() string {
	if b.Element == nil {
		return fmt.Sprintf("%s binding for %s", b.Kind, b.Key)
	}
	return fmt.Sprintf("%s binding for %s (%s)", b.Kind, b.Key, b.Element)
}
