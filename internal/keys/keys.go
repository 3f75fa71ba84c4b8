// Package keys canonicalizes (type, qualifier) pairs into comparable keys.
package keys

import (
	"strings"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
)

// Multibinding marks keys whose value is an aggregate.
type Multibinding int

const (
	None Multibinding = iota
	Set
	Map
)

func (m Multibinding) String() string {
	switch m {
	case Set:
		return "set"
	case Map:
		return "map"
	default:
		return "none"
	}
}

// Key identifies something that can be injected. Keys are plain values: two
// keys built from structurally equal types and qualifiers are ==.
type Key struct {
	// Type is the canonical rendering of the normalized type.
	Type string

	// Qualifier is the canonical rendering of the qualifier, empty if none.
	Qualifier string

	// Multi is derived from Type: Set and Map keys are aggregates.
	Multi Multibinding
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// IsMulti reports whether k names a set or map aggregate.
func (k Key) IsMulti() bool {
	return k.Multi != None
}

func (k Key) String() string {
	if k.Qualifier == "" {
		return k.Type
	}
	return k.Qualifier + " " + k.Type
}

// SecondaryLookup recovers the qualifiers of a field whose markers were not
// fully visible to the introspection layer. ok is false when the lookup has
// no information about the field.
type SecondaryLookup interface {
	Qualifiers(field *decl.Field) (markers []decl.Marker, ok bool)
}

// SecondaryLookupFunc adapts a function to SecondaryLookup.
type SecondaryLookupFunc func(field *decl.Field) ([]decl.Marker, bool)

func (f SecondaryLookupFunc) Qualifiers(field *decl.Field) ([]decl.Marker, bool) {
	return f(field)
}

// Factory builds keys. It holds no per-round state.
type Factory struct {
	strictWildcards bool
	secondary       SecondaryLookup
}

// NewFactory creates a key factory. When strictWildcards is set, wildcard
// type arguments keep their variance instead of collapsing to their bound.
// secondary may be nil.
func NewFactory(strictWildcards bool, secondary SecondaryLookup) *Factory {
	return &Factory{strictWildcards: strictWildcards, secondary: secondary}
}

// ForType canonicalizes t with an optional qualifier marker.
func (f *Factory) ForType(t *decl.Type, qualifier *decl.Marker) (Key, error) {
	canonical, err := f.Canonical(t)
	if err != nil {
		return Key{}, err
	}
	key := Key{Type: canonical, Multi: multiOf(t)}
	if qualifier != nil {
		if qualifier.Unresolved {
			return Key{}, diag.New(diag.TypeNotResolvable, *qualifier)
		}
		key.Qualifier = qualifier.String()
	}
	return key, nil
}

// ForEntity returns the key of t as declared on e, taking e's qualifier into
// account.
func (f *Factory) ForEntity(e decl.Entity, t *decl.Type) (Key, error) {
	q, err := f.Qualifier(e)
	if err != nil {
		return Key{}, err
	}
	return f.ForType(t, q)
}

// ForSetOf returns the key of Set<elem> with the given qualifier.
func (f *Factory) ForSetOf(elem *decl.Type, qualifier *decl.Marker) (Key, error) {
	return f.ForType(decl.SetOf(elem), qualifier)
}

// ForMapOf returns the key of Map<keyType, value>. keyType is the canonical
// map key type carried by a map key marker.
func (f *Factory) ForMapOf(keyType string, value *decl.Type, qualifier *decl.Marker) (Key, error) {
	v, err := f.ForType(value, qualifier)
	if err != nil {
		return Key{}, err
	}
	return Key{
		Type:      decl.MapElement.QualifiedName() + "[" + keyType + "," + v.Type + "]",
		Qualifier: v.Qualifier,
		Multi:     Map,
	}, nil
}

// ForOptionalOf returns the key of Optional<t>.
func (f *Factory) ForOptionalOf(t *decl.Type, qualifier *decl.Marker) (Key, error) {
	return f.ForType(decl.OptionalOf(t), qualifier)
}

// Canonical renders t in normalized form. Unresolvable types fail with
// TypeNotResolvable.
func (f *Factory) Canonical(t *decl.Type) (string, error) {
	var b strings.Builder
	if err := f.write(&b, t); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (f *Factory) write(b *strings.Builder, t *decl.Type) error {
	if t == nil {
		return diag.New(diag.TypeNotResolvable, "<nil>")
	}
	switch t.Kind {
	case decl.TypeDeclared:
		if t.Element == nil || t.Element.Unresolved {
			return diag.New(diag.TypeNotResolvable, t)
		}
		b.WriteString(t.Element.QualifiedName())
		if len(t.Args) == 0 {
			return nil
		}
		b.WriteByte('[')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := f.write(b, a); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	case decl.TypeWildcard:
		if !f.strictWildcards {
			if t.Bound == nil {
				b.WriteString("any")
				return nil
			}
			return f.write(b, t.Bound)
		}
		if t.Bound == nil {
			b.WriteByte('?')
			return nil
		}
		if t.Super {
			b.WriteString("? super ")
		} else {
			b.WriteString("? extends ")
		}
		return f.write(b, t.Bound)
	case decl.TypeArray:
		b.WriteString("[]")
		return f.write(b, t.Bound)
	case decl.TypePrimitive, decl.TypeVariable:
		b.WriteString(t.Name)
		return nil
	case decl.TypeVoid:
		return diag.New(diag.IllegalConfiguration, t)
	default:
		return diag.New(diag.TypeNotResolvable, t)
	}
}

func multiOf(t *decl.Type) Multibinding {
	switch {
	case t.Is(decl.SetElement):
		return Set
	case t.Is(decl.MapElement):
		return Map
	default:
		return None
	}
}

// Qualifier returns the single qualifier marker on e, or nil. More than one
// qualifier fails with IllegalConfiguration. Qualifiers recovered through the
// secondary lookup are merged with the declared ones by canonical identity.
func (f *Factory) Qualifier(e decl.Entity) (*decl.Marker, error) {
	if e == nil {
		return nil, nil
	}
	found := e.Annotations().MarkersOf(decl.MarkerQualifier)
	if len(found) > 1 {
		return nil, diag.New(diag.IllegalConfiguration, e, *found[0], *found[1])
	}

	if field, ok := e.(*decl.Field); ok && field.MarkersIncomplete {
		if f.secondary == nil {
			return nil, diag.New(diag.IllegalConfiguration, field)
		}
		extra, ok := f.secondary.Qualifiers(field)
		if !ok {
			return nil, diag.New(diag.IllegalConfiguration, field)
		}
		for i := range extra {
			if extra[i].Kind == decl.MarkerQualifier {
				found = append(found, &extra[i])
			}
		}
	}

	var (
		result *decl.Marker
		seen   string
	)
	for _, m := range found {
		if m.Unresolved {
			return nil, diag.New(diag.TypeNotResolvable, e, *m)
		}
		id := m.String()
		if result != nil && id != seen {
			return nil, diag.New(diag.IllegalConfiguration, e, *result, *m)
		}
		result, seen = m, id
	}
	return result, nil
}
