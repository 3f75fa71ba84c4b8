// Package modules reads module declarations into descriptors and computes
// transitive module closures.
package modules

import (
	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/round"
)

// Kind distinguishes plain modules from producer modules.
type Kind int

const (
	Module Kind = iota
	ProducerModule
)

func (k Kind) String() string {
	if k == ProducerModule {
		return "producer module"
	}
	return "module"
}

// SubcomponentDeclaration is a subcomponent listed by a module.
type SubcomponentDeclaration struct {
	Module       *decl.Element
	Subcomponent *decl.Element
}

// Descriptor is one module and its direct declarations.
type Descriptor struct {
	Element *decl.Element
	Kind    Kind

	// Bindings holds contributions, delegates and declarations in method
	// declaration order.
	Bindings []*binding.Binding

	Subcomponents []SubcomponentDeclaration

	// Includes lists explicitly included modules, then supertypes carrying a
	// module marker.
	Includes []*decl.Element
}

// Factory creates module descriptors, memoized per element for the round.
type Factory struct {
	keys     *keys.Factory
	requests *binding.RequestFactory
	cache    *round.Cache[*decl.Element, *Descriptor]
}

var _ round.Clearable = (*Factory)(nil)

// NewFactory creates a module descriptor factory.
func NewFactory(k *keys.Factory, requests *binding.RequestFactory) *Factory {
	return &Factory{
		keys:     k,
		requests: requests,
		cache:    round.NewCache[*decl.Element, *Descriptor](),
	}
}

// ClearCache drops memoized descriptors.
func (f *Factory) ClearCache() {
	f.cache.ClearCache()
}

// IsModule reports whether e carries a module marker.
func IsModule(e *decl.Element) bool {
	return e != nil && (e.HasMarker(decl.MarkerModule) || e.HasMarker(decl.MarkerProducerModule))
}

// Create returns the descriptor of module e.
func (f *Factory) Create(e *decl.Element) (*Descriptor, error) {
	return f.cache.GetOrCompute(e, func() (*Descriptor, error) {
		return f.create(e)
	})
}

func (f *Factory) create(e *decl.Element) (*Descriptor, error) {
	d := &Descriptor{Element: e}
	marker, ok := e.Marker(decl.MarkerModule)
	if !ok {
		if marker, ok = e.Marker(decl.MarkerProducerModule); !ok {
			return nil, diag.New(diag.IllegalConfiguration, e)
		}
		d.Kind = ProducerModule
	}

	seen := make(map[*decl.Element]bool)
	for _, t := range marker.TypeList(decl.AttrIncludes) {
		if !t.IsDeclared() || !IsModule(t.Element) {
			return nil, diag.New(diag.IllegalConfiguration, e, t)
		}
		if !seen[t.Element] {
			seen[t.Element] = true
			d.Includes = append(d.Includes, t.Element)
		}
	}
	for _, t := range e.Supertypes {
		if t.IsDeclared() && IsModule(t.Element) && !seen[t.Element] {
			seen[t.Element] = true
			d.Includes = append(d.Includes, t.Element)
		}
	}

	for _, t := range marker.TypeList(decl.AttrSubcomponents) {
		if !t.IsDeclared() || !isSubcomponent(t.Element) {
			return nil, diag.New(diag.IllegalConfiguration, e, t)
		}
		d.Subcomponents = append(d.Subcomponents, SubcomponentDeclaration{Module: e, Subcomponent: t.Element})
	}

	for _, m := range e.Methods {
		b, err := f.bindingFor(d, m)
		if err != nil {
			return nil, err
		}
		if b != nil {
			d.Bindings = append(d.Bindings, b)
		}
	}
	return d, nil
}

func isSubcomponent(e *decl.Element) bool {
	return e.HasMarker(decl.MarkerSubcomponent) || e.HasMarker(decl.MarkerProductionSubcomponent)
}

var bindingMarkers = []decl.MarkerKind{
	decl.MarkerProvides,
	decl.MarkerProduces,
	decl.MarkerBinds,
	decl.MarkerMultibinds,
	decl.MarkerBindsOptionalOf,
}

var contributionMarkers = []decl.MarkerKind{
	decl.MarkerIntoSet,
	decl.MarkerElementsIntoSet,
	decl.MarkerIntoMap,
}

// method is a module method classified by its binding marker.
type method struct {
	*decl.Method
	kind         decl.MarkerKind
	contribution binding.ContributionType
}

func classify(m *decl.Method) (method, error) {
	c := method{Method: m, kind: decl.MarkerUnknown}
	switch m.CountMarkers(bindingMarkers...) {
	case 0:
		if m.CountMarkers(contributionMarkers...) > 0 {
			return c, diag.New(diag.IllegalConfiguration, m)
		}
		return c, nil
	case 1:
	default:
		return c, diag.New(diag.IllegalConfiguration, m)
	}
	for _, k := range bindingMarkers {
		if m.HasMarker(k) {
			c.kind = k
		}
	}
	switch m.CountMarkers(contributionMarkers...) {
	case 0:
		c.contribution = binding.Unique
	case 1:
		switch {
		case m.HasMarker(decl.MarkerIntoSet):
			c.contribution = binding.IntoSet
		case m.HasMarker(decl.MarkerElementsIntoSet):
			c.contribution = binding.ElementsIntoSet
		default:
			c.contribution = binding.IntoMap
		}
	default:
		return c, diag.New(diag.IllegalConfiguration, m)
	}
	return c, nil
}

func (f *Factory) bindingFor(d *Descriptor, m *decl.Method) (*binding.Binding, error) {
	c, err := classify(m)
	if err != nil || c.kind == decl.MarkerUnknown {
		return nil, err
	}

	switch c.kind {
	case decl.MarkerProvides, decl.MarkerProduces:
		if c.kind == decl.MarkerProduces && d.Kind != ProducerModule {
			return nil, diag.New(diag.IllegalConfiguration, d.Element, m)
		}
		if m.Return.IsVoid() {
			return nil, diag.New(diag.ExcessiveOrInvalidShape, m)
		}
		if m.Abstract || m.Private {
			return nil, diag.New(diag.IllegalConfiguration, m)
		}
		deps, err := f.requests.ForParams(m.Params)
		if err != nil {
			return nil, err
		}
		ret := m.Return
		kind := binding.Provision
		if c.kind == decl.MarkerProduces {
			kind = binding.Production
			if ret.Is(decl.FutureElement) && ret.Arg(0) != nil {
				ret = ret.Arg(0)
			}
		}
		return f.contribution(d, c, kind, ret, deps)

	case decl.MarkerBinds:
		if !m.Abstract || len(m.Params) != 1 {
			return nil, diag.New(diag.IllegalConfiguration, m)
		}
		dep, err := f.requests.ForParam(m.Params[0])
		if err != nil {
			return nil, err
		}
		return f.contribution(d, c, binding.Delegate, m.Return, []binding.DependencyRequest{dep})

	case decl.MarkerMultibinds:
		if !m.Abstract || len(m.Params) != 0 || c.contribution != binding.Unique {
			return nil, diag.New(diag.IllegalConfiguration, m)
		}
		if !m.Return.Is(decl.SetElement) && !m.Return.Is(decl.MapElement) {
			return nil, diag.New(diag.IllegalConfiguration, m)
		}
		key, err := f.keys.ForEntity(m, m.Return)
		if err != nil {
			return nil, err
		}
		return &binding.Binding{
			Key:     key,
			Kind:    binding.MultibindingDeclaration,
			Element: m,
			Module:  d.Element,
		}, nil

	case decl.MarkerBindsOptionalOf:
		if !m.Abstract || len(m.Params) != 0 || c.contribution != binding.Unique || m.Return.IsVoid() {
			return nil, diag.New(diag.IllegalConfiguration, m)
		}
		q, err := f.keys.Qualifier(m)
		if err != nil {
			return nil, err
		}
		key, err := f.keys.ForOptionalOf(m.Return, q)
		if err != nil {
			return nil, err
		}
		dep, err := f.requests.ForEntity(m, m.Return)
		if err != nil {
			return nil, err
		}
		return &binding.Binding{
			Key:          key,
			Kind:         binding.OptionalDeclaration,
			Element:      m,
			Module:       d.Element,
			Dependencies: []binding.DependencyRequest{dep},
		}, nil
	}
	return nil, nil
}

// contribution builds a provision, production or delegate binding keyed by
// its contribution type.
func (f *Factory) contribution(d *Descriptor, c method, kind binding.Kind, ret *decl.Type, deps []binding.DependencyRequest) (*binding.Binding, error) {
	m := c.Method
	q, err := f.keys.Qualifier(m)
	if err != nil {
		return nil, err
	}
	b := &binding.Binding{
		Kind:         kind,
		Contribution: c.contribution,
		Element:      m,
		Module:       d.Element,
		Dependencies: deps,
		Nullable:     m.HasMarker(decl.MarkerNullable),
	}

	switch c.contribution {
	case binding.IntoSet:
		b.Key, err = f.keys.ForSetOf(ret, q)
	case binding.ElementsIntoSet:
		if !ret.Is(decl.SetElement) {
			return nil, diag.New(diag.IllegalConfiguration, m)
		}
		b.Key, err = f.keys.ForType(ret, q)
	case binding.IntoMap:
		mapKeys := m.MarkersOf(decl.MarkerMapKey)
		if len(mapKeys) != 1 {
			return nil, diag.New(diag.IllegalConfiguration, m)
		}
		b.MapKey = mapKeys[0].Value
		b.Key, err = f.keys.ForMapOf(mapKeys[0].Name, ret, q)
	default:
		b.Key, err = f.keys.ForType(ret, q)
	}
	if err != nil {
		return nil, err
	}

	scopes := m.MarkersOf(decl.MarkerScope)
	switch {
	case len(scopes) > 1:
		return nil, diag.New(diag.IllegalConfiguration, m, *scopes[0], *scopes[1])
	case len(scopes) == 1:
		b.Scope = scopes[0].String()
	}
	return b, nil
}

// TransitiveModules returns the descriptors of seeds and every module they
// include, directly or not, each exactly once. Order is breadth-first from
// the seeds in declaration order. Cyclic includes terminate.
func (f *Factory) TransitiveModules(seeds []*decl.Element) ([]*Descriptor, error) {
	var (
		result  []*Descriptor
		visited = make(map[*decl.Element]bool, len(seeds))
		queue   = append([]*decl.Element(nil), seeds...)
	)
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if visited[e] {
			continue
		}
		visited[e] = true

		d, err := f.Create(e)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
		for _, inc := range d.Includes {
			if !visited[inc] {
				queue = append(queue, inc)
			}
		}
	}
	return result, nil
}
