// Package validation checks that declarations are fully resolved before they
// are trusted as inputs to descriptor construction or binding resolution.
package validation

import (
	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
)

// ValidateTypeHierarchy walks t, its supertypes and its type arguments
// breadth-first, visiting each distinct type once, and fails with
// TypeNotResolvable on the first type or marker that is not fully resolved.
func ValidateTypeHierarchy(t *decl.Type) error {
	queue := []*decl.Type{t}
	seen := make(map[string]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil {
			continue
		}
		id := cur.String()
		if seen[id] {
			continue
		}
		seen[id] = true

		switch cur.Kind {
		case decl.TypeError:
			return diag.New(diag.TypeNotResolvable, cur)
		case decl.TypeDeclared:
			if cur.Element == nil || cur.Element.Unresolved {
				return diag.New(diag.TypeNotResolvable, cur)
			}
			if err := validateMarkers(cur.Element, &cur.Element.Annotated); err != nil {
				return err
			}
			queue = append(queue, cur.Args...)
			queue = append(queue, cur.Supertypes()...)
		case decl.TypeWildcard, decl.TypeArray:
			queue = append(queue, cur.Bound)
		}
	}
	return nil
}

func validateMarkers(owner decl.Entity, a *decl.Annotated) error {
	for _, m := range a.Markers {
		if m.Unresolved {
			return diag.New(diag.TypeNotResolvable, owner, m)
		}
		for _, types := range m.Types {
			for _, t := range types {
				if t == nil || t.Kind == decl.TypeError || (t.Kind == decl.TypeDeclared && (t.Element == nil || t.Element.Unresolved)) {
					return diag.New(diag.TypeNotResolvable, owner, m, t)
				}
			}
		}
	}
	return nil
}
