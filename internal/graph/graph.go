// Package graph is a key-level dependency graph with cycle detection and
// topological ordering.
package graph

import (
	"fmt"

	"github.com/junioryono/bindgraph/internal/keys"
)

// DependencyGraph manages the dependency relationships between keys.
// Iteration follows insertion order, so every result is deterministic.
// It is not safe for concurrent use.
type DependencyGraph struct {
	nodes map[keys.Key]*Node
	order []keys.Key
	edges map[keys.Key][]keys.Key // adjacency list representation

	// Cache for repeated sorts
	sortedNodes      []*Node
	sortedNodesDirty bool
}

// Node represents a key in the dependency graph
type Node struct {
	Key keys.Key

	// Graph metadata
	InDegree  int // number of dependents
	OutDegree int // number of dependencies
	Depth     int // depth in dependency tree

	Dependencies []keys.Key // keys this node depends on
	Dependents   []keys.Key // keys that depend on this node
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:            make(map[keys.Key]*Node),
		edges:            make(map[keys.Key][]keys.Key),
		sortedNodesDirty: true,
	}
}

func (g *DependencyGraph) ensure(key keys.Key) *Node {
	node, exists := g.nodes[key]
	if !exists {
		node = &Node{Key: key}
		g.nodes[key] = node
		g.order = append(g.order, key)
	}
	return node
}

// AddNode adds key with edges to deps, replacing any edges key already had.
// If the new edges close a cycle, they are rolled back and a *CycleError is
// returned.
func (g *DependencyGraph) AddNode(key keys.Key, deps []keys.Key) error {
	node := g.ensure(key)
	previous, hadEdges := g.edges[key]

	dependencies := make([]keys.Key, 0, len(deps))
	seen := make(map[keys.Key]bool, len(deps))
	for _, dep := range deps {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		dependencies = append(dependencies, dep)
		g.ensure(dep)
	}
	g.edges[key] = dependencies
	g.sortedNodesDirty = true

	// Check for cycles immediately
	if path := g.cycleFrom(key); path != nil {
		if hadEdges {
			g.edges[key] = previous
		} else {
			delete(g.edges, key)
		}
		g.updateDegrees()
		return &CycleError{Node: node.Key, Path: path}
	}

	g.updateDegrees()
	return nil
}

// updateDegrees recalculates degrees and adjacency lists for all nodes
func (g *DependencyGraph) updateDegrees() {
	for _, node := range g.nodes {
		node.InDegree = 0
		node.OutDegree = 0
		node.Dependencies = nil
		node.Dependents = nil
	}
	for _, from := range g.order {
		tos := g.edges[from]
		fromNode := g.nodes[from]
		fromNode.OutDegree = len(tos)
		fromNode.Dependencies = append([]keys.Key(nil), tos...)
		for _, to := range tos {
			if toNode, exists := g.nodes[to]; exists {
				toNode.InDegree++
				toNode.Dependents = append(toNode.Dependents, from)
			}
		}
	}
}

// TopologicalSort returns nodes in dependency order (dependencies first).
// Ties are broken by insertion order.
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	if !g.sortedNodesDirty && g.sortedNodes != nil {
		return append([]*Node(nil), g.sortedNodes...), nil
	}

	// Kahn's algorithm over the reversed edges: a node is ready once all of
	// its dependencies are emitted.
	remaining := make(map[keys.Key]int, len(g.nodes))
	queue := make([]keys.Key, 0)
	for _, key := range g.order {
		remaining[key] = len(g.edges[key])
		if remaining[key] == 0 {
			queue = append(queue, key)
		}
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.nodes[current]
		result = append(result, node)
		for _, dependent := range node.Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		if err := g.DetectCycles(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("graph contains %d nodes but only %d could be sorted", len(g.nodes), len(result))
	}

	g.sortedNodes = result
	g.sortedNodesDirty = false
	return append([]*Node(nil), result...), nil
}

// DetectCycles checks if the graph contains any cycles
func (g *DependencyGraph) DetectCycles() error {
	for _, key := range g.order {
		if path := g.cycleFrom(key); path != nil {
			return &CycleError{Node: key, Path: path}
		}
	}
	return nil
}

// cycleFrom runs a DFS from start and returns the first cycle reachable from
// it, starting at the node where the cycle closes.
func (g *DependencyGraph) cycleFrom(start keys.Key) []keys.Key {
	var (
		stack    []keys.Key
		onStack  = make(map[keys.Key]int)
		finished = make(map[keys.Key]bool)
		found    []keys.Key
	)
	var visit func(k keys.Key) bool
	visit = func(k keys.Key) bool {
		if i, ok := onStack[k]; ok {
			found = append([]keys.Key(nil), stack[i:]...)
			return true
		}
		if finished[k] {
			return false
		}
		onStack[k] = len(stack)
		stack = append(stack, k)
		for _, dep := range g.edges[k] {
			if visit(dep) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, k)
		finished[k] = true
		return false
	}
	visit(start)
	return found
}

// GetDependencies returns the direct dependencies of a key
func (g *DependencyGraph) GetDependencies(key keys.Key) []keys.Key {
	if node, exists := g.nodes[key]; exists {
		return append([]keys.Key(nil), node.Dependencies...)
	}
	return nil
}

// GetDependents returns keys that depend on the given key
func (g *DependencyGraph) GetDependents(key keys.Key) []keys.Key {
	if node, exists := g.nodes[key]; exists {
		return append([]keys.Key(nil), node.Dependents...)
	}
	return nil
}

// GetTransitiveDependencies returns all dependencies (direct and indirect)
func (g *DependencyGraph) GetTransitiveDependencies(key keys.Key) []keys.Key {
	visited := make(map[keys.Key]bool)
	result := make([]keys.Key, 0)

	var collect func(current keys.Key)
	collect = func(current keys.Key) {
		if visited[current] {
			return
		}
		visited[current] = true
		for _, dep := range g.edges[current] {
			if !visited[dep] {
				result = append(result, dep)
				collect(dep)
			}
		}
	}

	collect(key)
	return result
}

// GetNode returns the node for a given key
func (g *DependencyGraph) GetNode(key keys.Key) *Node {
	return g.nodes[key]
}

// Size returns the number of nodes in the graph
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// GetRoots returns all nodes nothing depends on
func (g *DependencyGraph) GetRoots() []*Node {
	roots := make([]*Node, 0)
	for _, key := range g.order {
		if node := g.nodes[key]; node.InDegree == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

// GetLeaves returns all nodes without dependencies
func (g *DependencyGraph) GetLeaves() []*Node {
	leaves := make([]*Node, 0)
	for _, key := range g.order {
		if node := g.nodes[key]; node.OutDegree == 0 {
			leaves = append(leaves, node)
		}
	}
	return leaves
}

// CalculateDepths assigns depth levels to nodes: leaves are at depth 0, every
// other node is one deeper than its deepest dependency.
func (g *DependencyGraph) CalculateDepths() {
	for _, node := range g.nodes {
		node.Depth = -1
	}

	queue := make([]*Node, 0)
	for _, key := range g.order {
		if node := g.nodes[key]; len(node.Dependencies) == 0 {
			node.Depth = 0
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, depKey := range current.Dependents {
			if dep, exists := g.nodes[depKey]; exists {
				newDepth := current.Depth + 1
				if dep.Depth < newDepth && newDepth <= len(g.nodes) {
					dep.Depth = newDepth
					queue = append(queue, dep)
				}
			}
		}
	}
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, in:%d, out:%d, depth:%d}",
		n.Key.String(), n.InDegree, n.OutDegree, n.Depth)
}
