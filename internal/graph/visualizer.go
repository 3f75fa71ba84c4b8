package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer renders a dependency graph for debugging.
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format. Node IDs follow insertion
// order, so the output is stable.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph bindings {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	ids := make(map[string]string, len(v.graph.order))
	for i, key := range v.graph.order {
		id := fmt.Sprintf("n%d", i)
		ids[key.String()] = id
		node := v.graph.nodes[key]
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q, style=filled];\n", id, key.String(), nodeColor(node))
	}
	for _, from := range v.graph.order {
		for _, to := range v.graph.edges[from] {
			fmt.Fprintf(&b, "  %s -> %s;\n", ids[from.String()], ids[to.String()])
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteAdjacencyList writes one line per key listing its dependencies.
func (v *Visualizer) WriteAdjacencyList(w io.Writer) error {
	var b strings.Builder
	for _, key := range v.graph.order {
		b.WriteString(key.String())
		deps := v.graph.edges[key]
		if len(deps) > 0 {
			b.WriteString(" -> ")
			for i, d := range deps {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(d.String())
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func nodeColor(node *Node) string {
	switch {
	case node.InDegree == 0 && node.OutDegree == 0:
		return "lightgray"
	case node.InDegree == 0:
		return "lightgreen"
	case node.OutDegree == 0:
		return "lightblue"
	default:
		return "white"
	}
}
