package testutil

import (
	"github.com/junioryono/bindgraph/decl"
)

// T returns the declared type of e with the given arguments.
func T(e *decl.Element, args ...*decl.Type) *decl.Type {
	return decl.Declared(e, args...)
}

// StringType is the framework string type, used as a map key type.
func StringType() *decl.Type {
	return decl.Declared(decl.StringElement)
}

// StringKey returns a map key marker over StringType.
func StringKey(value string) decl.Marker {
	return decl.MapKey(decl.StringElement.QualifiedName(), value)
}

// Scope returns a scope marker named after the fixture package.
func Scope(name string) decl.Marker {
	return decl.ScopeMarker(Pkg + "." + name)
}
