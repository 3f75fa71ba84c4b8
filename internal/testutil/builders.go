package testutil

import (
	"github.com/junioryono/bindgraph/decl"
)

// Pkg is the package every fixture element is declared in.
const Pkg = "app"

// Markable is any declaration that can carry markers.
type Markable interface {
	AddMarker(markers ...decl.Marker)
}

// With adds markers to e and returns it.
func With[E Markable](e E, markers ...decl.Marker) E {
	e.AddMarker(markers...)
	return e
}

// M returns a marker of the given kind without attributes.
func M(kind decl.MarkerKind) decl.Marker {
	return decl.Marker{Kind: kind}
}

// Class returns a concrete class.
func Class(name string, markers ...decl.Marker) *decl.Element {
	return With(&decl.Element{Package: Pkg, Name: name, Kind: decl.ElementClass}, markers...)
}

// AbstractClass returns an abstract class.
func AbstractClass(name string, markers ...decl.Marker) *decl.Element {
	e := Class(name, markers...)
	e.Abstract = true
	return e
}

// Interface returns an interface.
func Interface(name string, markers ...decl.Marker) *decl.Element {
	return With(&decl.Element{Package: Pkg, Name: name, Kind: decl.ElementInterface, Abstract: true}, markers...)
}

// Object returns a singleton object declaration.
func Object(name string, markers ...decl.Marker) *decl.Element {
	return With(&decl.Element{Package: Pkg, Name: name, Kind: decl.ElementObject}, markers...)
}

// Generic sets the type parameters of e.
func Generic(e *decl.Element, params ...string) *decl.Element {
	e.TypeParams = params
	return e
}

// Extends appends supertypes to e.
func Extends(e *decl.Element, supertypes ...*decl.Type) *decl.Element {
	e.Supertypes = append(e.Supertypes, supertypes...)
	return e
}

// Module returns a concrete module class including the given modules.
func Module(name string, includes ...*decl.Element) *decl.Element {
	return Class(name, decl.ModuleMarker(decl.MarkerModule, includes, nil))
}

// AbstractModule returns a module interface: every method it declares is
// abstract.
func AbstractModule(name string, includes ...*decl.Element) *decl.Element {
	return Interface(name, decl.ModuleMarker(decl.MarkerModule, includes, nil))
}

// Component returns a component interface.
func Component(name string, modules, dependencies []*decl.Element, markers ...decl.Marker) *decl.Element {
	c := Interface(name, decl.ComponentMarker(decl.MarkerComponent, modules, dependencies))
	return With(c, markers...)
}

// Subcomponent returns a subcomponent interface.
func Subcomponent(name string, modules ...*decl.Element) *decl.Element {
	return Interface(name, decl.ComponentMarker(decl.MarkerSubcomponent, modules, nil))
}

// Ctor returns a non-private constructor.
func Ctor(params ...*decl.Param) *decl.Constructor {
	return &decl.Constructor{Params: params}
}

// InjectCtor returns an inject-marked constructor.
func InjectCtor(params ...*decl.Param) *decl.Constructor {
	return With(Ctor(params...), M(decl.MarkerInject))
}

// PrivateCtor returns a private constructor.
func PrivateCtor(params ...*decl.Param) *decl.Constructor {
	c := Ctor(params...)
	c.Private = true
	return c
}

// Param returns a parameter.
func Param(name string, t *decl.Type, markers ...decl.Marker) *decl.Param {
	return With(&decl.Param{Name: name, Type: t}, markers...)
}

// Method returns a concrete method.
func Method(name string, ret *decl.Type, params ...*decl.Param) *decl.Method {
	if ret == nil {
		ret = decl.Void()
	}
	return &decl.Method{Name: name, Return: ret, Params: params}
}

// AbstractMethod returns an abstract method.
func AbstractMethod(name string, ret *decl.Type, params ...*decl.Param) *decl.Method {
	m := Method(name, ret, params...)
	m.Abstract = true
	return m
}

// Provides returns a concrete provides method.
func Provides(name string, ret *decl.Type, params ...*decl.Param) *decl.Method {
	return With(Method(name, ret, params...), M(decl.MarkerProvides))
}

// StaticProvides returns a static provides method.
func StaticProvides(name string, ret *decl.Type, params ...*decl.Param) *decl.Method {
	m := Provides(name, ret, params...)
	m.Static = true
	return m
}

// Binds returns an abstract binds method delegating ret to impl.
func Binds(name string, ret, impl *decl.Type) *decl.Method {
	return With(AbstractMethod(name, ret, Param("impl", impl)), M(decl.MarkerBinds))
}

// Field returns a non-private field.
func Field(name string, t *decl.Type, markers ...decl.Marker) *decl.Field {
	return With(&decl.Field{Name: name, Type: t}, markers...)
}
