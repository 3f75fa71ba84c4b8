// Package requirement derives the external inputs a component implementation
// needs in order to construct itself.
package requirement

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/round"
)

// Kind is the kind of a requirement.
type Kind int

const (
	// Dependency is a component dependency type.
	Dependency Kind = iota

	// Module is a module that may need an instance.
	Module

	// BoundInstance is a value passed to a creator.
	BoundInstance
)

func (k Kind) String() string {
	switch k {
	case Dependency:
		return "dependency"
	case Module:
		return "module"
	case BoundInstance:
		return "bound instance"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Identity is the equality of requirements: kind and normalized type, plus
// the key for bound instances.
type Identity struct {
	Kind Kind
	Type string
	Key  keys.Key
}

// Requirement is an input the generated component must obtain.
type Requirement struct {
	kind     Kind
	typ      *decl.Type
	id       Identity
	override *NullPolicy
	key      *keys.Key
	source   decl.Entity
	varName  string
}

func (r *Requirement) Kind() Kind { return r.kind }

// Type returns the required type.
func (r *Requirement) Type() *decl.Type { return r.typ }

// Element returns the declaring element of the required type.
func (r *Requirement) Element() *decl.Element { return r.typ.Element }

// Identity returns the value requirements are compared by.
func (r *Requirement) Identity() Identity { return r.id }

// Key returns the bound key of a bound-instance requirement.
func (r *Requirement) Key() (keys.Key, bool) {
	if r.key == nil {
		return keys.Key{}, false
	}
	return *r.key, true
}

// OverrideNullPolicy returns the explicit null policy, if any.
func (r *Requirement) OverrideNullPolicy() (NullPolicy, bool) {
	if r.override == nil {
		return 0, false
	}
	return *r.override, true
}

// Source is the creator method or parameter a bound instance comes from.
func (r *Requirement) Source() decl.Entity { return r.source }

// VariableName is the field name a generated component would use.
func (r *Requirement) VariableName() string { return r.varName }

func (r *Requirement) String() string {
	return fmt.Sprintf("%s %s", r.kind, r.id.Type)
}

// Dedup removes requirements with equal identities, keeping the first.
func Dedup(reqs []*Requirement) []*Requirement {
	seen := make(map[Identity]bool, len(reqs))
	out := reqs[:0:0]
	for _, r := range reqs {
		if seen[r.id] {
			continue
		}
		seen[r.id] = true
		out = append(out, r)
	}
	return out
}

// Factory creates requirements and computes their derived properties. Derived
// properties are memoized per requirement identity until the round ends.
type Factory struct {
	keys     *keys.Factory
	policies *round.Cache[Identity, NullPolicy]
	needs    *round.Cache[*decl.Element, bool]
}

var _ round.Clearable = (*Factory)(nil)

// NewFactory creates a requirement factory.
func NewFactory(k *keys.Factory) *Factory {
	return &Factory{
		keys:     k,
		policies: round.NewCache[Identity, NullPolicy](),
		needs:    round.NewCache[*decl.Element, bool](),
	}
}

// ClearCache drops memoized properties.
func (f *Factory) ClearCache() {
	f.policies.ClearCache()
	f.needs.ClearCache()
}

// ForDependency returns the requirement for a component dependency type.
func (f *Factory) ForDependency(t *decl.Type) (*Requirement, error) {
	return f.create(Dependency, t, nil, nil, nil)
}

// ForModule returns the requirement for a module type.
func (f *Factory) ForModule(t *decl.Type) (*Requirement, error) {
	return f.create(Module, t, nil, nil, nil)
}

// ForBoundInstance returns the requirement for a value of type t bound under
// key by a creator. Nullable bound instances allow absent values.
func (f *Factory) ForBoundInstance(t *decl.Type, key keys.Key, nullable bool, source decl.Entity) (*Requirement, error) {
	var override *NullPolicy
	if nullable {
		p := Allow
		override = &p
	}
	r, err := f.create(BoundInstance, t, &key, override, source)
	if err != nil {
		return nil, err
	}
	if source != nil {
		r.varName = safeName(source.SimpleName())
	}
	return r, nil
}

func (f *Factory) create(kind Kind, t *decl.Type, key *keys.Key, override *NullPolicy, source decl.Entity) (*Requirement, error) {
	if !t.IsDeclared() || t.Element.Unresolved {
		return nil, diag.New(diag.InvalidRequirementShape, kind, t)
	}
	canonical, err := f.keys.Canonical(t)
	if err != nil {
		return nil, diag.Wrap(diag.InvalidRequirementShape, err, kind, t)
	}
	id := Identity{Kind: kind, Type: canonical}
	if key != nil {
		id.Key = *key
	}
	return &Requirement{
		kind:     kind,
		typ:      t,
		id:       id,
		override: override,
		key:      key,
		source:   source,
		varName:  safeName(t.Element.Name),
	}, nil
}

// NullPolicy returns the policy for r: the override when present, Throw for
// dependencies and bound instances, and for modules New when the component
// can instantiate it, Throw when an instance is needed but cannot be made,
// Allow otherwise.
func (f *Factory) NullPolicy(r *Requirement) NullPolicy {
	if p, ok := r.OverrideNullPolicy(); ok {
		return p
	}
	if p, ok := f.policies.Get(r.id); ok {
		return p
	}
	var p NullPolicy
	switch r.kind {
	case Module:
		switch {
		case ComponentCanMakeNewInstances(r.Element()):
			p = New
		case f.RequiresAPassedInstance(r):
			p = Throw
		default:
			p = Allow
		}
	default:
		p = Throw
	}
	f.policies.Set(r.id, p)
	return p
}

// RequiresAPassedInstance reports whether the caller must supply a value for
// r. Dependencies and bound instances always need one.
func (f *Factory) RequiresAPassedInstance(r *Requirement) bool {
	if r.kind != Module {
		return true
	}
	return f.RequiresModuleInstance(r.Element()) && !ComponentCanMakeNewInstances(r.Element())
}

// RequiresModuleInstance reports whether any binding method of module e,
// inherited ones included, uses instance state: a non-private binding method
// that is neither abstract nor static. Singleton objects never need one.
func (f *Factory) RequiresModuleInstance(e *decl.Element) bool {
	if e.Kind == decl.ElementObject {
		return false
	}
	if v, ok := f.needs.Get(e); ok {
		return v
	}
	needs := false
	for _, mm := range e.AllMethods() {
		m := mm.Method
		if m.Private || m.Static || m.Abstract {
			continue
		}
		if IsBindingMethod(m) {
			needs = true
			break
		}
	}
	f.needs.Set(e, needs)
	return needs
}

// IsBindingMethod reports whether m declares a binding.
func IsBindingMethod(m *decl.Method) bool {
	for _, mk := range m.Markers {
		if mk.Kind.IsBindingMethod() {
			return true
		}
	}
	return false
}

// ComponentCanMakeNewInstances reports whether generated code could
// instantiate e with a visible parameterless constructor. It is false for
// interfaces, enums, annotation types, objects, abstract classes and nested
// types that capture an enclosing instance. A class declaring no constructor
// has an implicit visible one.
func ComponentCanMakeNewInstances(e *decl.Element) bool {
	if e.Kind != decl.ElementClass || e.Abstract || e.RequiresEnclosingInstance() {
		return false
	}
	if len(e.Constructors) == 0 {
		return true
	}
	for _, c := range e.Constructors {
		if len(c.Params) == 0 && !c.Private {
			return true
		}
	}
	return false
}

// safeName lower-cases the first rune of name and appends an underscore when
// the result is a Go keyword.
func safeName(name string) string {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "_"
	}
	r, size := utf8.DecodeRuneInString(name)
	v := string(unicode.ToLower(r)) + name[size:]
	if token.IsKeyword(v) {
		v += "_"
	}
	return v
}
