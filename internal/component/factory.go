// Package component builds component descriptors: the dependencies, modules,
// scopes, entry points and child subcomponents of a component type.
package component

import (
	"log/slog"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/modules"
	"github.com/junioryono/bindgraph/internal/requirement"
	"github.com/junioryono/bindgraph/internal/round"
	"github.com/junioryono/bindgraph/internal/validation"
)

// descriptorID identifies one descriptor: a declaring type plus the
// annotation it was built from.
type descriptorID struct {
	Element *decl.Element
	Kind    Kind
}

// building is the set of descriptors under construction along the current
// recursion path.
type building map[descriptorID]bool

// Factory builds component descriptors. Completed descriptors are memoized
// until the round ends. Not safe for concurrent use.
type Factory struct {
	logger       *slog.Logger
	keys         *keys.Factory
	requests     *binding.RequestFactory
	requirements *requirement.Factory
	modules      *modules.Factory
	cache        *round.Cache[descriptorID, *Descriptor]
}

var _ round.Clearable = (*Factory)(nil)

// NewFactory creates a descriptor factory.
func NewFactory(
	logger *slog.Logger,
	k *keys.Factory,
	requests *binding.RequestFactory,
	requirements *requirement.Factory,
	modules *modules.Factory,
) *Factory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{
		logger:       logger,
		keys:         k,
		requests:     requests,
		requirements: requirements,
		modules:      modules,
		cache:        round.NewCache[descriptorID, *Descriptor](),
	}
}

// ClearCache drops memoized descriptors.
func (f *Factory) ClearCache() {
	f.cache.ClearCache()
}

// Create returns the descriptor of a root component, or of a subcomponent
// when isSubcomponent is set.
func (f *Factory) Create(e *decl.Element, isSubcomponent bool) (*Descriptor, error) {
	if isSubcomponent {
		return f.SubcomponentDescriptor(e)
	}
	return f.RootComponentDescriptor(e)
}

// RootComponentDescriptor returns the descriptor of a (production) component.
func (f *Factory) RootComponentDescriptor(e *decl.Element) (*Descriptor, error) {
	return f.describe(e, make(building), decl.MarkerComponent, decl.MarkerProductionComponent)
}

// SubcomponentDescriptor returns the descriptor of a (production) subcomponent.
func (f *Factory) SubcomponentDescriptor(e *decl.Element) (*Descriptor, error) {
	return f.describe(e, make(building), decl.MarkerSubcomponent, decl.MarkerProductionSubcomponent)
}

// ModuleComponentDescriptor returns the descriptor of a fictional component
// whose only module is e, used to validate e's bindings in isolation.
func (f *Factory) ModuleComponentDescriptor(e *decl.Element) (*Descriptor, error) {
	return f.describe(e, make(building), decl.MarkerModule, decl.MarkerProducerModule)
}

func (f *Factory) subcomponent(e *decl.Element, inProgress building) (*Descriptor, error) {
	return f.describe(e, inProgress, decl.MarkerSubcomponent, decl.MarkerProductionSubcomponent)
}

func (f *Factory) describe(e *decl.Element, inProgress building, kinds ...decl.MarkerKind) (*Descriptor, error) {
	a, ok, err := annotationOf(e, kinds...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, diag.New(diag.IllegalConfiguration, e)
	}

	id := descriptorID{Element: e, Kind: a.Kind}
	if d, ok := f.cache.Get(id); ok {
		return d, nil
	}
	if inProgress[id] {
		return nil, diag.New(diag.CyclicSubcomponentDeclaration, e)
	}
	inProgress[id] = true
	defer delete(inProgress, id)

	if err := validation.ValidateTypeHierarchy(e.Type()); err != nil {
		return nil, diag.Attach(err, e)
	}
	d, err := f.create(e, a, inProgress)
	if err != nil {
		return nil, diag.Attach(err, e)
	}
	f.cache.Set(id, d)
	f.logger.Debug("component descriptor built",
		"component", e.QualifiedName(),
		"kind", a.Kind.String(),
		"modules", len(d.Modules),
		"methods", len(d.Methods),
		"children", len(d.ChildComponents()))
	return d, nil
}

func (f *Factory) create(e *decl.Element, a Annotation, inProgress building) (*Descriptor, error) {
	d := &Descriptor{
		Annotation:                     a,
		Element:                        e,
		DependenciesByDependencyMethod: make(map[*decl.Method]*requirement.Requirement),
		SubcomponentsByFactoryMethod:   make(map[*decl.Method]*Descriptor),
		SubcomponentsByBuilderMethod:   make(map[*decl.Method]*Descriptor),
	}

	for _, t := range a.Dependencies {
		r, err := f.requirements.ForDependency(t)
		if err != nil {
			return nil, err
		}
		d.Dependencies = append(d.Dependencies, r)
	}
	d.Dependencies = requirement.Dedup(d.Dependencies)
	for _, r := range d.Dependencies {
		for _, mm := range r.Element().AllMethods() {
			m := mm.Method
			if !isDependencyProvisionMethod(mm) {
				continue
			}
			if _, seen := d.DependenciesByDependencyMethod[m]; seen {
				continue
			}
			d.DependenciesByDependencyMethod[m] = r
			d.DependencyMethods = append(d.DependencyMethods, m)
		}
	}

	transitive, err := f.modules.TransitiveModules(a.Modules)
	if err != nil {
		return nil, err
	}
	d.Modules = transitive

	seenChildren := make(map[*decl.Element]bool)
	for _, md := range transitive {
		for _, sd := range md.Subcomponents {
			if seenChildren[sd.Subcomponent] {
				continue
			}
			seenChildren[sd.Subcomponent] = true
			child, err := f.subcomponent(sd.Subcomponent, inProgress)
			if err != nil {
				return nil, err
			}
			d.SubcomponentsFromModules = append(d.SubcomponentsFromModules, child)
		}
	}

	if a.IsRealComponent() {
		for _, mm := range e.UnimplementedMethods() {
			cm, err := f.componentMethod(d, mm, inProgress)
			if err != nil {
				return nil, err
			}
			d.Methods = append(d.Methods, cm)
			switch cm.Kind {
			case SubcomponentFactoryMethod:
				d.SubcomponentsByFactoryMethod[cm.Method] = cm.Subcomponent
			case SubcomponentCreatorMethod:
				d.SubcomponentsByBuilderMethod[cm.Method] = cm.Subcomponent
			}
		}
	}

	if d.Creator, err = f.creatorOf(e, a); err != nil {
		return nil, err
	}

	for _, s := range e.MarkersOf(decl.MarkerScope) {
		d.Scopes = append(d.Scopes, s.String())
	}
	if a.IsProduction() {
		d.Scopes = append(d.Scopes, decl.ScopeMarker(decl.ProductionScope).String())
	}

	reqs := append([]*requirement.Requirement(nil), d.Dependencies...)
	for _, md := range transitive {
		r, err := f.requirements.ForModule(md.Element.Type())
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	if d.Creator != nil {
		reqs = append(reqs, d.Creator.Requirements...)
	}
	d.requirements = requirement.Dedup(reqs)
	return d, nil
}

// isDependencyProvisionMethod reports whether a method of a dependency type
// provides a value to the component: an instance method taking no parameters
// and returning a value.
func isDependencyProvisionMethod(mm decl.MemberMethod) bool {
	m := mm.Method
	return !m.Static && !m.Private && len(mm.Params) == 0 && !mm.Return.IsVoid()
}

func (f *Factory) componentMethod(d *Descriptor, mm decl.MemberMethod, inProgress building) (*Method, error) {
	m := mm.Method
	cm := &Method{Method: m}
	ret := mm.Return

	if ret.IsDeclared() && !m.HasMarker(decl.MarkerQualifier) {
		if IsSubcomponentElement(ret.Element) {
			child, err := f.subcomponent(ret.Element, inProgress)
			if err != nil {
				return nil, err
			}
			cm.Kind = SubcomponentFactoryMethod
			cm.Subcomponent = child
			for i, p := range mm.Params {
				if !p.IsDeclared() || !modules.IsModule(p.Element) {
					return nil, diag.New(diag.IllegalConfiguration, m, m.Params[i])
				}
				r, err := f.requirements.ForModule(p)
				if err != nil {
					return nil, err
				}
				cm.Requirements = append(cm.Requirements, r)
			}
			return cm, nil
		}
		if IsSubcomponentCreator(ret.Element) {
			child, err := f.subcomponent(ret.Element.Enclosing, inProgress)
			if err != nil {
				return nil, err
			}
			cm.Kind = SubcomponentCreatorMethod
			cm.Subcomponent = child
		}
	}

	switch len(mm.Params) {
	case 0:
		if ret.IsVoid() {
			return nil, diag.New(diag.ExcessiveOrInvalidShape, m)
		}
		req, err := f.requests.ForEntity(m, ret)
		if err != nil {
			return nil, err
		}
		cm.Request = &req
		if cm.Kind != SubcomponentCreatorMethod {
			cm.Kind = ProvisionMethod
			if d.IsProduction() {
				cm.Kind = ProductionMethod
			}
		}
	case 1:
		param := mm.Params[0]
		if cm.Kind == SubcomponentCreatorMethod || (!ret.IsVoid() && ret.String() != param.String()) {
			return nil, diag.New(diag.ExcessiveOrInvalidShape, m)
		}
		req, err := f.requests.ForMembersInjection(m, param)
		if err != nil {
			return nil, err
		}
		cm.Kind = MembersInjectionMethod
		cm.Request = &req
	default:
		return nil, diag.New(diag.TooManyParameters, m)
	}
	return cm, nil
}
