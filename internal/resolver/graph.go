package resolver

import (
	"io"

	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/component"
	"github.com/junioryono/bindgraph/internal/graph"
	"github.com/junioryono/bindgraph/internal/keys"
)

// Graph is the resolved binding set of one component. Keys resolved in an
// ancestor are owned by that ancestor's graph.
type Graph struct {
	Component *component.Descriptor

	resolver     *Resolver
	parent       *Graph
	children     []*Graph
	allowMissing bool

	explicit     map[keys.Key][]*binding.Binding
	explicitKeys []keys.Key

	bindings         map[keys.Key]*binding.Binding
	membersInjection map[keys.Key]*binding.Binding
	membersOrder     []keys.Key
	deps             *graph.DependencyGraph
}

func newGraph(r *Resolver, d *component.Descriptor, parent *Graph, allowMissing bool) *Graph {
	return &Graph{
		Component:        d,
		resolver:         r,
		parent:           parent,
		allowMissing:     allowMissing,
		explicit:         make(map[keys.Key][]*binding.Binding),
		bindings:         make(map[keys.Key]*binding.Binding),
		membersInjection: make(map[keys.Key]*binding.Binding),
		deps:             graph.NewDependencyGraph(),
	}
}

// Parent returns the graph of the parent component, nil for a root.
func (g *Graph) Parent() *Graph {
	return g.parent
}

// Children returns the graphs of the child components.
func (g *Graph) Children() []*Graph {
	return g.children
}

// Binding returns the binding resolved for key in this component or one of
// its ancestors.
func (g *Graph) Binding(key keys.Key) (*binding.Binding, bool) {
	for cur := g; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[key]; ok {
			return b, true
		}
	}
	return nil, false
}

// Owns reports whether key was resolved in this component itself.
func (g *Graph) Owns(key keys.Key) bool {
	_, ok := g.bindings[key]
	return ok
}

// Bindings returns the bindings owned by this component, dependencies first.
func (g *Graph) Bindings() []*binding.Binding {
	nodes, err := g.deps.TopologicalSort()
	if err != nil {
		// Unreachable for graphs returned by Resolve: cycles fail resolution.
		return nil
	}
	return g.owned(nodes)
}

// MembersInjectionBindings returns the members-injection bindings requested
// by this component, in request order.
func (g *Graph) MembersInjectionBindings() []*binding.Binding {
	out := make([]*binding.Binding, 0, len(g.membersOrder))
	for _, k := range g.membersOrder {
		out = append(out, g.membersInjection[k])
	}
	return out
}

// Dependencies returns the keys that key's binding depends on directly.
// Provider and Lazy requests are not dependency edges.
func (g *Graph) Dependencies(key keys.Key) []keys.Key {
	return g.deps.GetDependencies(key)
}

// Dependents returns the keys of this component's bindings that depend on key
// directly.
func (g *Graph) Dependents(key keys.Key) []keys.Key {
	return g.deps.GetDependents(key)
}

// TransitiveDependencies returns every key reachable from key, depth first.
func (g *Graph) TransitiveDependencies(key keys.Key) []keys.Key {
	return g.deps.GetTransitiveDependencies(key)
}

// Roots returns the bindings owned by this component that no other binding
// of the component depends on.
func (g *Graph) Roots() []*binding.Binding {
	return g.owned(g.deps.GetRoots())
}

// Leaves returns the bindings owned by this component without dependency
// edges.
func (g *Graph) Leaves() []*binding.Binding {
	return g.owned(g.deps.GetLeaves())
}

func (g *Graph) owned(nodes []*graph.Node) []*binding.Binding {
	out := make([]*binding.Binding, 0, len(nodes))
	for _, n := range nodes {
		if b, ok := g.bindings[n.Key]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Depth returns the length of the longest dependency chain below key, or -1
// if key is not part of this component's graph.
func (g *Graph) Depth(key keys.Key) int {
	g.deps.CalculateDepths()
	node := g.deps.GetNode(key)
	if node == nil {
		return -1
	}
	return node.Depth
}

// WriteAdjacencyList writes one line per key with its dependency edges.
func (g *Graph) WriteAdjacencyList(w io.Writer) error {
	return graph.NewVisualizer(g.deps).WriteAdjacencyList(w)
}

// WriteDOT renders the component's dependency edges in Graphviz format.
// Provider and Lazy edges are not part of the graph.
func (g *Graph) WriteDOT(w io.Writer) error {
	return graph.NewVisualizer(g.deps).WriteDOT(w)
}
