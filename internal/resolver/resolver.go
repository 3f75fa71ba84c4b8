// Package resolver resolves component descriptors into binding graphs: one
// binding per key, merged multibindings, and detection of missing or
// duplicate bindings, dependency cycles and misplaced scopes.
package resolver

import (
	"errors"
	"log/slog"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/component"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/graph"
	"github.com/junioryono/bindgraph/internal/keys"
)

// InjectBindings looks up bindings discovered from injection sites.
type InjectBindings interface {
	InjectionBinding(key keys.Key, t *decl.Type) (*binding.Binding, bool, error)
	MembersInjectionBinding(key keys.Key, t *decl.Type) (*binding.Binding, bool, error)
}

// ModuleInstances tells whether a module's bindings need a module instance.
type ModuleInstances interface {
	RequiresModuleInstance(e *decl.Element) bool
}

// Resolver builds binding graphs. It holds no per-round state of its own.
type Resolver struct {
	logger   *slog.Logger
	keys     *keys.Factory
	registry InjectBindings
	modules  ModuleInstances
}

// New creates a resolver.
func New(logger *slog.Logger, k *keys.Factory, registry InjectBindings, modules ModuleInstances) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{logger: logger, keys: k, registry: registry, modules: modules}
}

// Resolve resolves the graph of a root component and, recursively, of its
// children.
func (r *Resolver) Resolve(d *component.Descriptor) (*Graph, error) {
	return r.resolve(d, nil, false)
}

// ValidateModule resolves every key declared by the modules of a fictional
// module component in isolation. Keys that have no binding are tolerated;
// everything else fails as it would in a real component.
func (r *Resolver) ValidateModule(d *component.Descriptor) (*Graph, error) {
	g := newGraph(r, d, nil, true)
	if err := g.collectExplicit(); err != nil {
		return nil, diag.Attach(err, d.Element)
	}
	for _, key := range g.explicitKeys {
		if _, err := g.resolveKey(key, nil, nil); err != nil {
			return nil, diag.Attach(err, d.Element)
		}
	}
	return g, nil
}

func (r *Resolver) resolve(d *component.Descriptor, parent *Graph, allowMissing bool) (*Graph, error) {
	g := newGraph(r, d, parent, allowMissing)
	if err := g.collectExplicit(); err != nil {
		return nil, diag.Attach(err, d.Element)
	}

	for _, ep := range d.EntryPoints() {
		req := *ep.Request
		var err error
		if req.Kind == binding.MembersInjectionRequest {
			err = g.resolveMembersInjection(req)
		} else {
			_, err = g.resolveRequest(req)
		}
		if err != nil {
			return nil, diag.Attach(err, d.Element)
		}
	}

	for _, child := range d.ChildComponents() {
		cg, err := r.resolve(child, g, allowMissing)
		if err != nil {
			return nil, diag.Attach(err, d.Element)
		}
		g.children = append(g.children, cg)
	}

	r.logger.Debug("binding graph resolved",
		"component", d.Element.QualifiedName(),
		"bindings", len(g.bindings),
		"nodes", g.deps.Size(),
		"children", len(g.children))
	return g, nil
}

func (g *Graph) resolveRequest(req binding.DependencyRequest) (*binding.Binding, error) {
	b, err := g.resolveKey(req.Key, req.Type, req.Element)
	if err != nil && g.allowMissing && errors.Is(err, diag.MissingBinding) {
		return nil, nil
	}
	return b, err
}

// resolveKey returns the binding for key, installing it in the owning graph
// if it was not resolved yet. typ is the requested type, if known. requester
// is reported when the key is missing.
func (g *Graph) resolveKey(key keys.Key, typ *decl.Type, requester any) (*binding.Binding, error) {
	if b, ok := g.bindings[key]; ok {
		return b, nil
	}

	var (
		unique    []*binding.Binding
		uniqueAt  []*Graph
		multi     []*binding.Binding
		multiAt   *Graph
		uniqueIDs = make(map[binding.Identity]bool)
	)
	for cur := g; cur != nil; cur = cur.parent {
		for _, b := range cur.explicit[key] {
			if b.Contribution == binding.Unique && !b.Kind.IsDeclaration() {
				if uniqueIDs[b.Identity()] {
					continue
				}
				uniqueIDs[b.Identity()] = true
				unique = append(unique, b)
				uniqueAt = append(uniqueAt, cur)
				continue
			}
			if multiAt == nil {
				multiAt = cur
			}
		}
	}

	switch {
	case len(unique) > 1 || (len(unique) == 1 && multiAt != nil):
		entities := []any{key}
		for _, b := range unique {
			entities = append(entities, b.Element)
		}
		return nil, diag.New(diag.DuplicateBinding, entities...)

	case len(unique) == 1:
		owner := uniqueAt[0]
		if owner != g {
			return owner.resolveKey(key, typ, requester)
		}
		return g.install(unique[0])

	case multiAt != nil && !key.IsMulti():
		return g.resolveOptional(key, multiAt)

	case multiAt != nil:
		if multiAt != g {
			return multiAt.resolveKey(key, typ, requester)
		}
		// Contributions from the root down, in declaration order.
		for _, cur := range g.chain() {
			multi = append(multi, cur.explicit[key]...)
		}
		agg, err := binding.Multibound(key, multi)
		if err != nil {
			return nil, err
		}
		return g.install(agg)
	}

	b, ok, err := g.resolver.registry.InjectionBinding(key, typ)
	if err != nil {
		return nil, err
	}
	if ok {
		owner := g
		if b.IsScoped() {
			owner = nil
			for cur := g; cur != nil; cur = cur.parent {
				if cur.Component.HasScope(b.Scope) {
					owner = cur
					break
				}
			}
			switch {
			case owner == nil && g.allowMissing:
				owner = g
			case owner == nil:
				return nil, diag.New(diag.IncompatibleScope, key, b.Scope, g.Component.Element)
			}
		} else {
			for cur := g.parent; cur != nil; cur = cur.parent {
				if existing, ok := cur.bindings[key]; ok {
					return existing, nil
				}
			}
		}
		if owner != g {
			if existing, ok := owner.bindings[key]; ok {
				return existing, nil
			}
		}
		return owner.install(b)
	}

	if requester != nil {
		return nil, diag.New(diag.MissingBinding, key, requester)
	}
	return nil, diag.New(diag.MissingBinding, key)
}

// chain returns the graphs from the root down to g.
func (g *Graph) chain() []*Graph {
	var chain []*Graph
	for cur := g; cur != nil; cur = cur.parent {
		chain = append([]*Graph{cur}, chain...)
	}
	return chain
}

// resolveOptional resolves an Optional key from its declarations: present
// when the underlying key can be bound from this component, absent otherwise.
// The binding is owned by declaredAt, the nearest graph declaring the key,
// unless the underlying key resolves differently from here.
func (g *Graph) resolveOptional(key keys.Key, declaredAt *Graph) (*binding.Binding, error) {
	var declaration *binding.Binding
	for _, cur := range g.chain() {
		for _, d := range cur.explicit[key] {
			if declaration == nil && d.Kind == binding.OptionalDeclaration {
				declaration = d
			}
		}
	}
	if declaration == nil || len(declaration.Dependencies) == 0 {
		return nil, diag.New(diag.IllegalConfiguration, key)
	}
	underlying := declaration.Dependencies[0]
	present, err := g.canBind(underlying)
	if err != nil {
		return nil, err
	}
	if declaredAt != g {
		presentThere, err := declaredAt.canBind(underlying)
		if err != nil {
			return nil, err
		}
		if presentThere == present {
			return declaredAt.resolveKey(key, nil, nil)
		}
	}

	b := &binding.Binding{Key: key, Kind: binding.Optional, Element: declaration.Element, Module: declaration.Module}
	if present {
		b.Dependencies = []binding.DependencyRequest{underlying}
	}
	return g.install(b)
}

// canBind reports whether the requested key has an explicit binding in this
// component or an ancestor, or an injection binding.
func (g *Graph) canBind(req binding.DependencyRequest) (bool, error) {
	for cur := g; cur != nil; cur = cur.parent {
		if _, ok := cur.bindings[req.Key]; ok {
			return true, nil
		}
		for _, b := range cur.explicit[req.Key] {
			if !b.Kind.IsDeclaration() || b.Kind == binding.MultibindingDeclaration {
				return true, nil
			}
		}
	}
	_, ok, err := g.resolver.registry.InjectionBinding(req.Key, req.Type)
	return ok, err
}

// install records b as owned by g, then resolves its dependencies. Recording
// first lets a cycle reach b again without recursing forever; the cycle is
// then reported when b's edges are added to the dependency graph.
func (g *Graph) install(b *binding.Binding) (*binding.Binding, error) {
	if b.IsScoped() && !g.allowMissing && !g.Component.HasScope(b.Scope) {
		return nil, diag.New(diag.IncompatibleScope, b.Key, b.Scope, b.Element)
	}
	g.bindings[b.Key] = b

	edges := make([]keys.Key, 0, len(b.Dependencies))
	for _, dep := range b.Dependencies {
		if _, err := g.resolveRequest(dep); err != nil {
			return nil, err
		}
		if !dep.Kind.BreaksCycles() {
			edges = append(edges, dep.Key)
		}
	}

	if err := g.deps.AddNode(b.Key, edges); err != nil {
		var cycle *graph.CycleError
		if errors.As(err, &cycle) {
			entities := make([]any, 0, len(cycle.Path))
			for _, k := range cycle.Path {
				entities = append(entities, k)
			}
			return nil, diag.Wrap(diag.DependencyCycle, err, entities...)
		}
		return nil, err
	}
	return b, nil
}

func (g *Graph) resolveMembersInjection(req binding.DependencyRequest) error {
	if _, ok := g.membersInjection[req.Key]; ok {
		return nil
	}
	b, ok, err := g.resolver.registry.MembersInjectionBinding(req.Key, req.Type)
	if err != nil {
		return err
	}
	if !ok {
		// A type without inject members still gets a no-op binding.
		b = &binding.Binding{Key: req.Key, Kind: binding.MembersInjection, Element: req.Element}
	}
	g.membersInjection[req.Key] = b
	g.membersOrder = append(g.membersOrder, req.Key)

	for _, dep := range b.Dependencies {
		if _, err := g.resolveRequest(dep); err != nil {
			return err
		}
	}
	return nil
}
