package graph

import (
	"strings"

	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
)

// CycleError represents a dependency cycle between keys. Path lists the keys
// on the cycle, starting where it closes.
type CycleError struct {
	Node keys.Key
	Path []keys.Key
}

func (e *CycleError) Error() string {
	var b strings.Builder
	b.WriteString("dependency cycle: ")
	if len(e.Path) == 0 {
		b.WriteString(e.Node.String())
		b.WriteString(" -> ")
		b.WriteString(e.Node.String())
		return b.String()
	}
	for _, k := range e.Path {
		b.WriteString(k.String())
		b.WriteString(" -> ")
	}
	b.WriteString(e.Path[0].String())
	return b.String()
}

// Is matches diag.DependencyCycle.
func (e *CycleError) Is(target error) bool {
	return target == diag.DependencyCycle
}
