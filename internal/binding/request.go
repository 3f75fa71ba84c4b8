package binding

import (
	"fmt"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
)

// RequestKind is how a dependency is requested.
type RequestKind int

const (
	Instance RequestKind = iota
	Provider
	Lazy
	Producer
	Future
	MembersInjectionRequest
)

func (k RequestKind) String() string {
	switch k {
	case Instance:
		return "instance"
	case Provider:
		return "provider"
	case Lazy:
		return "lazy"
	case Producer:
		return "producer"
	case Future:
		return "future"
	case MembersInjectionRequest:
		return "members injection"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

// BreaksCycles reports whether requests of this kind defer construction, so
// that a cycle through them is legal.
func (k RequestKind) BreaksCycles() bool {
	return k == Provider || k == Lazy
}

// DependencyRequest is an edge from a binding to the key it depends on.
type DependencyRequest struct {
	Key      keys.Key
	Kind     RequestKind
	Element  decl.Entity
	Nullable bool

	// Type is the requested type with framework wrappers removed. Lookups of
	// generic inject types read their type arguments from it.
	Type *decl.Type
}

func (r DependencyRequest) String() string {
	if r.Kind == Instance {
		return r.Key.String()
	}
	return fmt.Sprintf("%s(%s)", r.Kind, r.Key)
}

var wrappers = []struct {
	element *decl.Element
	kind    RequestKind
}{
	{decl.ProviderElement, Provider},
	{decl.LazyElement, Lazy},
	{decl.ProducerElement, Producer},
	{decl.FutureElement, Future},
}

// RequestFactory builds dependency requests from declarations.
type RequestFactory struct {
	keys *keys.Factory
}

// NewRequestFactory creates a request factory.
func NewRequestFactory(k *keys.Factory) *RequestFactory {
	return &RequestFactory{keys: k}
}

// ForParam returns the request made by a constructor or method parameter.
func (f *RequestFactory) ForParam(p *decl.Param) (DependencyRequest, error) {
	return f.ForEntity(p, p.Type)
}

// ForParams returns the requests of every parameter, in order.
func (f *RequestFactory) ForParams(params []*decl.Param) ([]DependencyRequest, error) {
	reqs := make([]DependencyRequest, 0, len(params))
	for _, p := range params {
		r, err := f.ForParam(p)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

// ForEntity returns the request for type t declared on e. Framework wrappers
// are unwrapped into the request kind, and Map<K, Provider<V>> requests the
// plain map key.
func (f *RequestFactory) ForEntity(e decl.Entity, t *decl.Type) (DependencyRequest, error) {
	kind := Instance
	for _, w := range wrappers {
		if !t.Is(w.element) {
			continue
		}
		inner := t.Arg(0)
		if inner == nil {
			return DependencyRequest{}, diag.New(diag.IllegalConfiguration, e, t)
		}
		kind = w.kind
		t = inner
		if kind == Provider && t.Is(decl.LazyElement) && t.Arg(0) != nil {
			t = t.Arg(0)
		}
		break
	}
	if t.Is(decl.MapElement) {
		t = unwrapMapValue(t)
	}

	key, err := f.keys.ForEntity(e, t)
	if err != nil {
		return DependencyRequest{}, err
	}
	return DependencyRequest{
		Key:      key,
		Kind:     kind,
		Element:  e,
		Nullable: e != nil && e.Annotations().HasMarker(decl.MarkerNullable),
		Type:     t,
	}, nil
}

// ForMembersInjection returns a members-injection request for t.
func (f *RequestFactory) ForMembersInjection(e decl.Entity, t *decl.Type) (DependencyRequest, error) {
	key, err := f.keys.ForType(t, nil)
	if err != nil {
		return DependencyRequest{}, err
	}
	return DependencyRequest{Key: key, Kind: MembersInjectionRequest, Element: e, Type: t}, nil
}

func unwrapMapValue(t *decl.Type) *decl.Type {
	v := t.Arg(1)
	if v == nil {
		return t
	}
	if (v.Is(decl.ProviderElement) || v.Is(decl.ProducerElement)) && v.Arg(0) != nil {
		return decl.MapOf(t.Arg(0), v.Arg(0))
	}
	return t
}
