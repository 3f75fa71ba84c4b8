package decl

import (
	"strings"
)

// Entity is any declaration that can carry markers: elements, constructors,
// fields, methods and parameters. Entities are compared by identity.
type Entity interface {
	String() string
	SimpleName() string
	Annotations() *Annotated
}

var (
	_ Entity = (*Element)(nil)
	_ Entity = (*Method)(nil)
	_ Entity = (*Constructor)(nil)
	_ Entity = (*Field)(nil)
	_ Entity = (*Param)(nil)
)

// ElementKind classifies a type declaration.
type ElementKind int

const (
	ElementClass ElementKind = iota
	ElementInterface
	ElementEnum
	ElementAnnotationType

	// ElementObject is a singleton object declaration whose members behave as
	// static members.
	ElementObject
)

// Element is a declared type.
type Element struct {
	Annotated

	Package string
	Name    string
	Kind    ElementKind

	Abstract bool

	// Static is only meaningful for nested elements: a non-static nested
	// element captures an enclosing instance.
	Static bool

	Enclosing  *Element
	TypeParams []string

	// Supertypes lists the superclass and implemented interfaces, expressed
	// in terms of this element's type parameters.
	Supertypes []*Type

	Constructors []*Constructor
	Fields       []*Field
	Methods      []*Method
	Nested       []*Element

	// Unresolved is set when the element itself could not be fully resolved.
	Unresolved bool
}

// QualifiedName returns package.Outer.Inner.
func (e *Element) QualifiedName() string {
	var parts []string
	for cur := e; cur != nil; cur = cur.Enclosing {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	name := strings.Join(parts, ".")
	if pkg := e.rootPackage(); pkg != "" {
		return pkg + "." + name
	}
	return name
}

func (e *Element) rootPackage() string {
	cur := e
	for cur.Enclosing != nil {
		cur = cur.Enclosing
	}
	return cur.Package
}

func (e *Element) String() string {
	return e.QualifiedName()
}

func (e *Element) SimpleName() string {
	return e.Name
}

// Type returns the element's own type, parameterized by its type variables.
func (e *Element) Type() *Type {
	if len(e.TypeParams) == 0 {
		return Declared(e)
	}
	args := make([]*Type, len(e.TypeParams))
	for i, p := range e.TypeParams {
		args[i] = Var(p)
	}
	return Declared(e, args...)
}

// IsNested reports whether e is declared inside another element.
func (e *Element) IsNested() bool {
	return e.Enclosing != nil
}

// RequiresEnclosingInstance reports whether instantiating e needs a reference
// to an instance of its enclosing element.
func (e *Element) RequiresEnclosingInstance() bool {
	return e.IsNested() && !e.Static && e.Kind == ElementClass
}

// AddConstructor attaches constructors to e.
func (e *Element) AddConstructor(cs ...*Constructor) *Element {
	for _, c := range cs {
		c.Owner = e
		for _, p := range c.Params {
			p.Owner = c
		}
	}
	e.Constructors = append(e.Constructors, cs...)
	return e
}

// AddMethod attaches methods to e.
func (e *Element) AddMethod(ms ...*Method) *Element {
	for _, m := range ms {
		m.Owner = e
		for _, p := range m.Params {
			p.Owner = m
		}
	}
	e.Methods = append(e.Methods, ms...)
	return e
}

// AddField attaches fields to e.
func (e *Element) AddField(fs ...*Field) *Element {
	for _, f := range fs {
		f.Owner = e
	}
	e.Fields = append(e.Fields, fs...)
	return e
}

// AddNested declares nested elements inside e.
func (e *Element) AddNested(ns ...*Element) *Element {
	for _, n := range ns {
		n.Enclosing = e
	}
	e.Nested = append(e.Nested, ns...)
	return e
}

// Method is a method declaration.
type Method struct {
	Annotated

	Owner    *Element
	Name     string
	Params   []*Param
	Return   *Type
	Abstract bool
	Static   bool
	Private  bool
}

func (m *Method) String() string {
	var b strings.Builder
	if m.Owner != nil {
		b.WriteString(m.Owner.QualifiedName())
		b.WriteByte('.')
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (m *Method) SimpleName() string {
	return m.Name
}

// Constructor is a constructor declaration.
type Constructor struct {
	Annotated

	Owner   *Element
	Params  []*Param
	Private bool
}

func (c *Constructor) String() string {
	var b strings.Builder
	if c.Owner != nil {
		b.WriteString(c.Owner.QualifiedName())
	}
	b.WriteString(".<init>(")
	for i, p := range c.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (c *Constructor) SimpleName() string {
	if c.Owner == nil {
		return "<init>"
	}
	return c.Owner.Name
}

// Field is a field declaration.
type Field struct {
	Annotated

	Owner   *Element
	Name    string
	Type    *Type
	Static  bool
	Private bool
	Final   bool

	// MarkersIncomplete is set when the introspection layer could not see all
	// markers on the field itself; qualifiers must then be recovered from a
	// secondary accessor.
	MarkersIncomplete bool
}

func (f *Field) String() string {
	if f.Owner == nil {
		return f.Name
	}
	return f.Owner.QualifiedName() + "." + f.Name
}

func (f *Field) SimpleName() string {
	return f.Name
}

// Param is a method or constructor parameter.
type Param struct {
	Annotated

	Owner Entity
	Name  string
	Type  *Type
}

func (p *Param) String() string {
	if p.Owner == nil {
		return p.Name
	}
	return p.Owner.String() + "#" + p.Name
}

func (p *Param) SimpleName() string {
	return p.Name
}

// MemberMethod is a method viewed as a member of a particular type: its
// parameter and return types have the type arguments of that type substituted.
type MemberMethod struct {
	Method *Method
	Params []*Type
	Return *Type
}

func (mm MemberMethod) signature() string {
	var b strings.Builder
	b.WriteString(mm.Method.Name)
	b.WriteByte('(')
	for i, p := range mm.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return b.String()
}

// AllMethods returns the methods of e together with every inherited,
// non-private, non-static method of its supertypes, resolved as members of e.
// Of several declarations with one signature the most derived wins, so an
// abstract redeclaration hides the concrete method it overrides. Between
// unrelated supertypes a concrete method hides an abstract one. Order is e's
// own methods first, then supertypes depth-first in declaration order.
func (e *Element) AllMethods() []MemberMethod {
	var (
		result   []MemberMethod
		declared []*Element
		bySig    = make(map[string]int)
		visited  = make(map[*Element]bool)
	)
	var walk func(t *Type, own bool)
	walk = func(t *Type, own bool) {
		if !t.IsDeclared() || visited[t.Element] {
			return
		}
		visited[t.Element] = true
		bindings := t.Bindings()
		for _, m := range t.Element.Methods {
			if !own && (m.Private || m.Static) {
				continue
			}
			mm := MemberMethod{Method: m, Return: Substitute(m.Return, bindings)}
			for _, p := range m.Params {
				mm.Params = append(mm.Params, Substitute(p.Type, bindings))
			}
			sig := mm.signature()
			i, seen := bySig[sig]
			if !seen {
				bySig[sig] = len(result)
				result = append(result, mm)
				declared = append(declared, t.Element)
				continue
			}
			prev := declared[i]
			switch {
			case t.Element.inherits(prev):
			case prev.inherits(t.Element):
				continue
			case !result[i].Method.Abstract || m.Abstract:
				continue
			}
			result[i] = mm
			declared[i] = t.Element
		}
		for _, s := range t.Supertypes() {
			walk(s, false)
		}
	}
	walk(e.Type(), true)
	return result
}

// inherits reports whether other is a proper supertype of e.
func (e *Element) inherits(other *Element) bool {
	seen := make(map[*Element]bool)
	var visit func(cur *Element) bool
	visit = func(cur *Element) bool {
		for _, s := range cur.Supertypes {
			if !s.IsDeclared() || seen[s.Element] {
				continue
			}
			seen[s.Element] = true
			if s.Element == other || visit(s.Element) {
				return true
			}
		}
		return false
	}
	return e != other && visit(e)
}

// UnimplementedMethods returns the abstract methods of e, inherited ones
// included, that no concrete method implements.
func (e *Element) UnimplementedMethods() []MemberMethod {
	var abstract []MemberMethod
	for _, mm := range e.AllMethods() {
		if mm.Method.Abstract && !mm.Method.Static {
			abstract = append(abstract, mm)
		}
	}
	return abstract
}
