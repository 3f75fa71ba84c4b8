package binding

import (
	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/round"
)

// ElementValidator checks that an element can be trusted as input to binding
// resolution.
type ElementValidator interface {
	ThrowIfNotValid(e *decl.Element) error
}

// Registry holds the bindings discovered from injection sites: constructor
// injection bindings and members-injection bindings. Registered sites are
// forgotten at the end of a round.
type Registry struct {
	keys      *keys.Factory
	requests  *RequestFactory
	validator ElementValidator

	ctors    map[*decl.Element]*decl.Constructor
	ctorKeys map[keys.Key]*decl.Element
	assisted map[*decl.Element]*decl.Constructor

	elements    map[keys.Key]*decl.Element
	memberSites map[*decl.Element][]decl.Entity

	injection *round.Cache[keys.Key, *Binding]
	members   *round.Cache[keys.Key, *Binding]
}

var _ round.Clearable = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry(k *keys.Factory, requests *RequestFactory, validator ElementValidator) *Registry {
	r := &Registry{
		keys:      k,
		requests:  requests,
		validator: validator,
		injection: round.NewCache[keys.Key, *Binding](),
		members:   round.NewCache[keys.Key, *Binding](),
	}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.ctors = make(map[*decl.Element]*decl.Constructor)
	r.ctorKeys = make(map[keys.Key]*decl.Element)
	r.assisted = make(map[*decl.Element]*decl.Constructor)
	r.elements = make(map[keys.Key]*decl.Element)
	r.memberSites = make(map[*decl.Element][]decl.Entity)
}

// ClearCache forgets every registered site.
func (r *Registry) ClearCache() {
	r.reset()
	r.injection.ClearCache()
	r.members.ClearCache()
}

// TryRegisterInjectConstructor records c as the injection constructor of its
// owner.
func (r *Registry) TryRegisterInjectConstructor(c *decl.Constructor) error {
	owner := c.Owner
	if owner == nil {
		return diag.New(diag.IllegalConfiguration, c)
	}
	if err := r.validator.ThrowIfNotValid(owner); err != nil {
		return err
	}
	switch {
	case c.Private:
		return diag.New(diag.IllegalConfiguration, c)
	case owner.Abstract || owner.Kind != decl.ElementClass:
		return diag.New(diag.IllegalConfiguration, owner, c)
	case owner.RequiresEnclosingInstance():
		return diag.New(diag.IllegalConfiguration, owner, c)
	}
	if existing, ok := r.ctors[owner]; ok {
		if existing == c {
			return nil
		}
		return diag.New(diag.IllegalConfiguration, owner, existing, c)
	}
	if existing, ok := r.assisted[owner]; ok && existing != c {
		return diag.New(diag.IllegalConfiguration, owner, existing, c)
	}
	if _, err := r.scopeOf(owner); err != nil {
		return err
	}
	if _, err := r.requests.ForParams(c.Params); err != nil {
		return err
	}

	key, err := r.keys.ForType(owner.Type(), nil)
	if err != nil {
		return err
	}
	r.elements[key] = owner

	if c.HasMarker(decl.MarkerAssistedInject) {
		// Assisted types are created through their factory, never bound directly.
		r.assisted[owner] = c
		return nil
	}
	r.ctors[owner] = c
	r.ctorKeys[key] = owner
	r.injection.Delete(key)
	return nil
}

// TryRegisterInjectField records an inject-marked field.
func (r *Registry) TryRegisterInjectField(f *decl.Field) error {
	owner := f.Owner
	if owner == nil {
		return diag.New(diag.IllegalConfiguration, f)
	}
	if err := r.validator.ThrowIfNotValid(owner); err != nil {
		return err
	}
	if f.Private || f.Static || f.Final {
		return diag.New(diag.IllegalConfiguration, f)
	}
	if _, err := r.requests.ForEntity(f, f.Type); err != nil {
		return err
	}
	return r.addMemberSite(owner, f)
}

// TryRegisterInjectMethod records an inject-marked method.
func (r *Registry) TryRegisterInjectMethod(m *decl.Method) error {
	owner := m.Owner
	if owner == nil {
		return diag.New(diag.IllegalConfiguration, m)
	}
	if err := r.validator.ThrowIfNotValid(owner); err != nil {
		return err
	}
	if m.Abstract || m.Private || m.Static {
		return diag.New(diag.IllegalConfiguration, m)
	}
	if _, err := r.requests.ForParams(m.Params); err != nil {
		return err
	}
	return r.addMemberSite(owner, m)
}

func (r *Registry) addMemberSite(owner *decl.Element, site decl.Entity) error {
	for _, s := range r.memberSites[owner] {
		if s == site {
			return nil
		}
	}
	key, err := r.keys.ForType(owner.Type(), nil)
	if err != nil {
		return err
	}
	r.elements[key] = owner
	r.memberSites[owner] = append(r.memberSites[owner], site)
	r.injection.ClearCache()
	r.members.ClearCache()
	return nil
}

// InjectionBinding returns the constructor injection binding for key. t is
// the requested type; for a generic inject type its arguments are substituted
// into the constructor and member dependencies. t may be nil. ok is false
// when no inject constructor was registered for the key's type.
func (r *Registry) InjectionBinding(key keys.Key, t *decl.Type) (b *Binding, ok bool, err error) {
	if key.Qualifier != "" || key.IsMulti() {
		return nil, false, nil
	}
	owner, ok := r.ctorKeys[key]
	if !ok && isGenericUse(t) {
		_, ok = r.ctors[t.Element]
		owner = t.Element
	}
	if !ok {
		return nil, false, nil
	}
	if !t.Is(owner) {
		t = owner.Type()
	}
	b, err = r.injection.GetOrCompute(key, func() (*Binding, error) {
		ctor := r.ctors[owner]
		deps, err := r.paramRequests(ctor.Params, t.Bindings())
		if err != nil {
			return nil, err
		}
		memberDeps, err := r.memberDependencies(t)
		if err != nil {
			return nil, err
		}
		scope, err := r.scopeOf(owner)
		if err != nil {
			return nil, err
		}
		return &Binding{
			Key:          key,
			Kind:         Injection,
			Element:      ctor,
			Dependencies: append(deps, memberDeps...),
			Scope:        scope,
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// MembersInjectionBinding returns the members-injection binding for key. Any
// type known to the registry has one, possibly without dependencies. t is
// the requested type and may be nil.
func (r *Registry) MembersInjectionBinding(key keys.Key, t *decl.Type) (b *Binding, ok bool, err error) {
	owner, ok := r.elements[key]
	if !ok && isGenericUse(t) {
		_, sites := r.memberSites[t.Element]
		_, ctor := r.ctors[t.Element]
		ok = sites || ctor
		owner = t.Element
	}
	if !ok {
		return nil, false, nil
	}
	if !t.Is(owner) {
		t = owner.Type()
	}
	b, err = r.members.GetOrCompute(key, func() (*Binding, error) {
		deps, err := r.memberDependencies(t)
		if err != nil {
			return nil, err
		}
		return &Binding{
			Key:          key,
			Kind:         MembersInjection,
			Element:      owner,
			Dependencies: deps,
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// isGenericUse reports whether t instantiates a generic declared type.
func isGenericUse(t *decl.Type) bool {
	return t.IsDeclared() && len(t.Element.TypeParams) > 0 && len(t.Args) > 0
}

// IsAssisted reports whether e was registered through an assisted-inject
// constructor.
func (r *Registry) IsAssisted(e *decl.Element) bool {
	_, ok := r.assisted[e]
	return ok
}

// memberDependencies collects the requests of every inject field and method
// of t's element and its supertypes, supertypes first, with t's type
// arguments substituted.
func (r *Registry) memberDependencies(t *decl.Type) ([]DependencyRequest, error) {
	var (
		deps    []DependencyRequest
		visited = make(map[*decl.Element]bool)
	)
	var walk func(t *decl.Type) error
	walk = func(t *decl.Type) error {
		if visited[t.Element] {
			return nil
		}
		visited[t.Element] = true
		for _, s := range t.Supertypes() {
			if s.IsDeclared() {
				if err := walk(s); err != nil {
					return err
				}
			}
		}
		bindings := t.Bindings()
		for _, site := range r.memberSites[t.Element] {
			switch site := site.(type) {
			case *decl.Field:
				req, err := r.requests.ForEntity(site, decl.Substitute(site.Type, bindings))
				if err != nil {
					return err
				}
				deps = append(deps, req)
			case *decl.Method:
				reqs, err := r.paramRequests(site.Params, bindings)
				if err != nil {
					return err
				}
				deps = append(deps, reqs...)
			}
		}
		return nil
	}
	if err := walk(t); err != nil {
		return nil, err
	}
	return deps, nil
}

// paramRequests returns the requests of params with bindings substituted.
func (r *Registry) paramRequests(params []*decl.Param, bindings map[string]*decl.Type) ([]DependencyRequest, error) {
	reqs := make([]DependencyRequest, 0, len(params))
	for _, p := range params {
		req, err := r.requests.ForEntity(p, decl.Substitute(p.Type, bindings))
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (r *Registry) scopeOf(e *decl.Element) (string, error) {
	scopes := e.MarkersOf(decl.MarkerScope)
	switch len(scopes) {
	case 0:
		return "", nil
	case 1:
		return scopes[0].String(), nil
	default:
		return "", diag.New(diag.IllegalConfiguration, e, *scopes[0], *scopes[1])
	}
}
