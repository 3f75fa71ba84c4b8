package decl

import (
	"fmt"
	"strings"
)

// TypeKind classifies a type expression.
type TypeKind int

const (
	TypeDeclared TypeKind = iota
	TypePrimitive
	TypeVoid
	TypeError
	TypeWildcard
	TypeVariable
	TypeArray
)

func (k TypeKind) String() string {
	switch k {
	case TypeDeclared:
		return "declared"
	case TypePrimitive:
		return "primitive"
	case TypeVoid:
		return "void"
	case TypeError:
		return "error"
	case TypeWildcard:
		return "wildcard"
	case TypeVariable:
		return "variable"
	case TypeArray:
		return "array"
	default:
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
}

// Type is a type expression as reported by the introspection layer.
type Type struct {
	Kind TypeKind

	// Element is the declaring element of a declared type.
	Element *Element

	// Name names primitives, type variables and error types.
	Name string

	// Args are the type arguments of a declared type.
	Args []*Type

	// Bound is the bound of a wildcard or the component type of an array.
	Bound *Type

	// Super marks a lower-bounded wildcard (? super Bound).
	Super bool
}

// Declared returns the declared type e<args...>.
func Declared(e *Element, args ...*Type) *Type {
	return &Type{Kind: TypeDeclared, Element: e, Args: args}
}

// Primitive returns a primitive type.
func Primitive(name string) *Type {
	return &Type{Kind: TypePrimitive, Name: name}
}

// Void returns the void type.
func Void() *Type {
	return &Type{Kind: TypeVoid}
}

// ErrorType returns a type that failed to resolve.
func ErrorType(name string) *Type {
	return &Type{Kind: TypeError, Name: name}
}

// Wildcard returns ? extends bound, or ? when bound is nil.
func Wildcard(bound *Type) *Type {
	return &Type{Kind: TypeWildcard, Bound: bound}
}

// WildcardSuper returns ? super bound.
func WildcardSuper(bound *Type) *Type {
	return &Type{Kind: TypeWildcard, Bound: bound, Super: true}
}

// Var returns a reference to a type variable.
func Var(name string) *Type {
	return &Type{Kind: TypeVariable, Name: name}
}

// ArrayOf returns an array of elem.
func ArrayOf(elem *Type) *Type {
	return &Type{Kind: TypeArray, Bound: elem}
}

// IsDeclared reports whether t is a declared type with an element.
func (t *Type) IsDeclared() bool {
	return t != nil && t.Kind == TypeDeclared && t.Element != nil
}

// IsVoid reports whether t is void.
func (t *Type) IsVoid() bool {
	return t == nil || t.Kind == TypeVoid
}

// Is reports whether t is a declared type of element e.
func (t *Type) Is(e *Element) bool {
	return t.IsDeclared() && t.Element == e
}

// Arg returns type argument i, or nil.
func (t *Type) Arg(i int) *Type {
	if t == nil || i < 0 || i >= len(t.Args) {
		return nil
	}
	return t.Args[i]
}

// String renders the type structurally. Two structurally equal expressions
// render identically.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeDeclared:
		if t.Element == nil {
			return "<unknown>"
		}
		if len(t.Args) == 0 {
			return t.Element.QualifiedName()
		}
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return t.Element.QualifiedName() + "[" + strings.Join(args, ",") + "]"
	case TypePrimitive, TypeVariable:
		return t.Name
	case TypeVoid:
		return "void"
	case TypeError:
		return "<error:" + t.Name + ">"
	case TypeWildcard:
		if t.Bound == nil {
			return "?"
		}
		if t.Super {
			return "? super " + t.Bound.String()
		}
		return "? extends " + t.Bound.String()
	case TypeArray:
		return "[]" + t.Bound.String()
	default:
		return fmt.Sprintf("<%s>", t.Kind)
	}
}

// Bindings maps type parameter names of t's element to t's arguments.
func (t *Type) Bindings() map[string]*Type {
	if !t.IsDeclared() || len(t.Args) == 0 {
		return nil
	}
	bindings := make(map[string]*Type, len(t.Args))
	for i, name := range t.Element.TypeParams {
		if i < len(t.Args) {
			bindings[name] = t.Args[i]
		}
	}
	return bindings
}

// Supertypes returns the direct supertypes of t with t's type arguments
// substituted.
func (t *Type) Supertypes() []*Type {
	if !t.IsDeclared() {
		return nil
	}
	bindings := t.Bindings()
	supers := make([]*Type, 0, len(t.Element.Supertypes))
	for _, s := range t.Element.Supertypes {
		supers = append(supers, Substitute(s, bindings))
	}
	return supers
}

// Substitute replaces type variables in t according to bindings.
func Substitute(t *Type, bindings map[string]*Type) *Type {
	if t == nil || len(bindings) == 0 {
		return t
	}
	switch t.Kind {
	case TypeVariable:
		if b, ok := bindings[t.Name]; ok {
			return b
		}
		return t
	case TypeDeclared:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]*Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = Substitute(a, bindings)
		}
		return &Type{Kind: TypeDeclared, Element: t.Element, Args: args}
	case TypeWildcard, TypeArray:
		if t.Bound == nil {
			return t
		}
		return &Type{Kind: t.Kind, Bound: Substitute(t.Bound, bindings), Super: t.Super}
	default:
		return t
	}
}
