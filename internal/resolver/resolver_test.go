package resolver_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/resolver"
	"github.com/junioryono/bindgraph/internal/testutil"
)

func keyStrings(g *resolver.Graph) []string {
	var out []string
	for _, b := range g.Bindings() {
		out = append(out, b.Key.String())
	}
	return out
}

func TestResolve_CoffeeShop(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	shop := testutil.NewCoffeeShop()
	env.Register(t, shop.Sites()...)

	g, err := env.Resolve(shop.Shop)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app.ElectricHeater",
		"app.Heater",
		"app.Thermosiphon",
		"app.Pump",
		"app.CoffeeMaker",
	}, keyStrings(g))

	heater, ok := g.Binding(env.Key(t, testutil.T(shop.Heater)))
	require.True(t, ok)
	assert.Equal(t, binding.Delegate, heater.Kind)
	assert.Same(t, shop.DripModule, heater.Module)

	electric, ok := g.Binding(env.Key(t, testutil.T(shop.ElectricHeater)))
	require.True(t, ok)
	assert.Equal(t, binding.Injection, electric.Kind)
	assert.Equal(t, "@app.Singleton", electric.Scope)
	assert.True(t, g.Owns(electric.Key))
	assert.Nil(t, g.Parent())
	assert.Empty(t, g.Children())
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	render := func() ([]string, string) {
		env := testutil.NewEnv(t)
		shop := testutil.NewCoffeeShop()
		env.Register(t, shop.Sites()...)
		g, err := env.Resolve(shop.Shop)
		require.NoError(t, err)

		var dot strings.Builder
		require.NoError(t, g.WriteDOT(&dot))
		return keyStrings(g), dot.String()
	}

	names, dot := render()
	for i := 0; i < 5; i++ {
		k, d := render()
		assert.Equal(t, names, k)
		assert.Equal(t, dot, d)
	}
	// The lazy edge from CoffeeMaker to Heater is not a graph edge.
	assert.NotContains(t, dot, `n4 -> n1;`)
}

func TestGraph_Queries(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	shop := testutil.NewCoffeeShop()
	env.Register(t, shop.Sites()...)
	g, err := env.Resolve(shop.Shop)
	require.NoError(t, err)

	key := func(e *decl.Element) keys.Key { return env.Key(t, testutil.T(e)) }

	assert.Equal(t, []keys.Key{key(shop.Pump)}, g.Dependencies(key(shop.CoffeeMaker)))
	assert.Equal(t, []keys.Key{key(shop.Thermosiphon)}, g.Dependents(key(shop.Heater)),
		"the lazy request from CoffeeMaker is not an edge")
	assert.Equal(t, []keys.Key{
		key(shop.Pump),
		key(shop.Thermosiphon),
		key(shop.Heater),
		key(shop.ElectricHeater),
	}, g.TransitiveDependencies(key(shop.CoffeeMaker)))

	roots := g.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, key(shop.CoffeeMaker), roots[0].Key)
	leaves := g.Leaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, key(shop.ElectricHeater), leaves[0].Key)

	assert.Equal(t, 4, g.Depth(key(shop.CoffeeMaker)))
	assert.Equal(t, 0, g.Depth(key(shop.ElectricHeater)))
	assert.Equal(t, -1, g.Depth(env.Key(t, testutil.T(testutil.Class("Unused")))))

	var adj strings.Builder
	require.NoError(t, g.WriteAdjacencyList(&adj))
	assert.Equal(t, "app.ElectricHeater\n"+
		"app.Heater -> app.ElectricHeater\n"+
		"app.Thermosiphon -> app.Heater\n"+
		"app.Pump -> app.Thermosiphon\n"+
		"app.CoffeeMaker -> app.Pump\n", adj.String())
}

func TestResolve_MissingBinding(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	widget := testutil.Class("Widget")
	c := testutil.Component("C", nil, nil)
	entry := testutil.AbstractMethod("widget", testutil.T(widget))
	c.AddMethod(entry)

	_, err := env.Resolve(c)
	de := testutil.RequireKind(t, err, diag.MissingBinding)
	assert.Same(t, c, de.Entities[0])
	testutil.AssertEntity(t, err, env.Key(t, testutil.T(widget)))
	testutil.AssertEntity(t, err, decl.Entity(entry))
}

func TestResolve_DuplicateBinding(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	widget := testutil.Class("Widget")
	a := testutil.Module("A")
	a.AddMethod(testutil.StaticProvides("widget", testutil.T(widget)))
	b := testutil.Module("B")
	b.AddMethod(testutil.StaticProvides("widget", testutil.T(widget)))

	c := testutil.Component("C", []*decl.Element{a, b}, nil)
	c.AddMethod(testutil.AbstractMethod("widget", testutil.T(widget)))

	_, err := env.Resolve(c)
	testutil.RequireKind(t, err, diag.DuplicateBinding)
}

func TestResolve_Cycles(t *testing.T) {
	t.Parallel()

	build := func(t *testing.T, wrap func(*decl.Type) *decl.Type) (*testutil.Env, *decl.Element) {
		env := testutil.NewEnv(t)
		a := testutil.Class("A")
		b := testutil.Class("B")
		ca := testutil.InjectCtor(testutil.Param("b", testutil.T(b)))
		cb := testutil.InjectCtor(testutil.Param("a", wrap(testutil.T(a))))
		a.AddConstructor(ca)
		b.AddConstructor(cb)
		env.Register(t, ca, cb)

		c := testutil.Component("C", nil, nil)
		c.AddMethod(testutil.AbstractMethod("a", testutil.T(a)))
		return env, c
	}

	t.Run("direct cycle", func(t *testing.T) {
		t.Parallel()

		env, c := build(t, func(typ *decl.Type) *decl.Type { return typ })
		_, err := env.Resolve(c)
		testutil.RequireKind(t, err, diag.DependencyCycle)
		testutil.AssertEntity(t, err, env.Key(t, decl.Declared(c.Methods[0].Return.Element)))
	})

	t.Run("broken by provider", func(t *testing.T) {
		t.Parallel()

		env, c := build(t, decl.ProviderOf)
		g, err := env.Resolve(c)
		require.NoError(t, err)
		assert.Equal(t, []string{"app.B", "app.A"}, keyStrings(g))
	})

	t.Run("broken by lazy", func(t *testing.T) {
		t.Parallel()

		env, c := build(t, decl.LazyOf)
		_, err := env.Resolve(c)
		require.NoError(t, err)
	})
}

func TestResolve_RepeatedFailures(t *testing.T) {
	t.Parallel()

	cyclic := func(t *testing.T, env *testutil.Env) *decl.Element {
		a := testutil.Class("A")
		b := testutil.Class("B")
		ca := testutil.InjectCtor(testutil.Param("b", testutil.T(b)))
		cb := testutil.InjectCtor(testutil.Param("a", testutil.T(a)))
		a.AddConstructor(ca)
		b.AddConstructor(cb)
		env.Register(t, ca, cb)

		c := testutil.Component("C", nil, nil)
		c.AddMethod(testutil.AbstractMethod("a", testutil.T(a)))
		return c
	}
	missing := func(_ *testing.T, _ *testutil.Env) *decl.Element {
		c := testutil.Component("C", nil, nil)
		c.AddMethod(testutil.AbstractMethod("widget", testutil.T(testutil.Class("Widget"))))
		return c
	}

	tests := []struct {
		name  string
		build func(*testing.T, *testutil.Env) *decl.Element
		want  diag.Kind
	}{
		{name: "dependency cycle", build: cyclic, want: diag.DependencyCycle},
		{name: "missing binding", build: missing, want: diag.MissingBinding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := testutil.NewEnv(t)
			c := tt.build(t, env)

			first, err := env.Components.RootComponentDescriptor(c)
			require.NoError(t, err)
			second, err := env.Components.RootComponentDescriptor(c)
			require.NoError(t, err)
			assert.Same(t, first, second)

			_, err1 := env.Resolver.Resolve(first)
			testutil.RequireKind(t, err1, tt.want)
			_, err2 := env.Resolver.Resolve(second)
			testutil.RequireKind(t, err2, tt.want)

			assert.Equal(t, err1, err2)
			assert.Equal(t, err1.Error(), err2.Error())
		})
	}
}

func TestResolve_Scopes(t *testing.T) {
	t.Parallel()

	t.Run("scoped injection in unscoped component", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		shop := testutil.NewCoffeeShop()
		shop.Shop.Markers = shop.Shop.Markers[:1]
		env.Register(t, shop.Sites()...)

		_, err := env.Resolve(shop.Shop)
		testutil.RequireKind(t, err, diag.IncompatibleScope)
	})

	t.Run("scoped module binding in unscoped component", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		widget := testutil.Class("Widget")
		m := testutil.Module("M")
		m.AddMethod(testutil.With(testutil.StaticProvides("widget", testutil.T(widget)), testutil.Scope("Request")))
		c := testutil.Component("C", []*decl.Element{m}, nil)
		c.AddMethod(testutil.AbstractMethod("widget", testutil.T(widget)))

		_, err := env.Resolve(c)
		testutil.RequireKind(t, err, diag.IncompatibleScope)
	})

	t.Run("scoped binding is owned by the scoped ancestor", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		shop := testutil.NewCoffeeShop()
		env.Register(t, shop.Sites()...)

		child := testutil.Subcomponent("Counter")
		child.AddMethod(testutil.AbstractMethod("heater", testutil.T(shop.ElectricHeater)))
		shop.Shop.AddMethod(testutil.AbstractMethod("counter", testutil.T(child)))

		g, err := env.Resolve(shop.Shop)
		require.NoError(t, err)
		require.Len(t, g.Children(), 1)

		cg := g.Children()[0]
		key := env.Key(t, testutil.T(shop.ElectricHeater))
		assert.Same(t, g, cg.Parent())
		assert.False(t, cg.Owns(key))
		assert.True(t, g.Owns(key))

		b, ok := cg.Binding(key)
		require.True(t, ok)
		assert.Equal(t, "@app.Singleton", b.Scope)
	})
}

func TestResolve_Multibindings(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	widget := testutil.Class("Widget")
	set := decl.SetOf(testutil.T(widget))

	parentModule := testutil.AbstractModule("ParentModule")
	a := testutil.With(testutil.StaticProvides("a", testutil.T(widget)), testutil.M(decl.MarkerIntoSet))
	parentModule.AddMethod(a)

	childModule := testutil.AbstractModule("ChildModule")
	b := testutil.With(testutil.StaticProvides("b", testutil.T(widget)), testutil.M(decl.MarkerIntoSet))
	childModule.AddMethod(b)

	child := testutil.Subcomponent("Child", childModule)
	child.AddMethod(testutil.AbstractMethod("widgets", set))

	parent := testutil.Component("Parent", []*decl.Element{parentModule}, nil)
	parent.AddMethod(
		testutil.AbstractMethod("widgets", set),
		testutil.AbstractMethod("child", testutil.T(child)),
	)

	g, err := env.Resolve(parent)
	require.NoError(t, err)
	key := env.Key(t, set)

	pb, ok := g.Binding(key)
	require.True(t, ok)
	assert.Equal(t, binding.MultiboundSet, pb.Kind)
	require.Len(t, pb.Contributions, 1)
	assert.Same(t, a, pb.Contributions[0].Element)

	cg := g.Children()[0]
	assert.True(t, cg.Owns(key))
	cb, ok := cg.Binding(key)
	require.True(t, ok)
	require.Len(t, cb.Contributions, 2)
	assert.Same(t, a, cb.Contributions[0].Element, "ancestor contributions first")
	assert.Same(t, b, cb.Contributions[1].Element)
}

func TestResolve_EmptyMultibinding(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	widget := testutil.Class("Widget")
	keyType := testutil.StringType()
	m := testutil.AbstractModule("M")
	m.AddMethod(testutil.With(testutil.AbstractMethod("widgets", decl.MapOf(keyType, testutil.T(widget))), testutil.M(decl.MarkerMultibinds)))

	c := testutil.Component("C", []*decl.Element{m}, nil)
	c.AddMethod(testutil.AbstractMethod("widgets", decl.MapOf(keyType, decl.ProviderOf(testutil.T(widget)))))

	g, err := env.Resolve(c)
	require.NoError(t, err)
	bindings := g.Bindings()
	require.Len(t, bindings, 1)
	assert.Equal(t, binding.MultiboundMap, bindings[0].Kind)
	assert.Empty(t, bindings[0].Contributions)
}

func TestResolve_Optional(t *testing.T) {
	t.Parallel()

	build := func(t *testing.T, withBinding bool) (*testutil.Env, *decl.Element, *decl.Element) {
		env := testutil.NewEnv(t)
		gadget := testutil.Interface("Gadget")
		m := testutil.AbstractModule("M")
		m.AddMethod(testutil.With(testutil.AbstractMethod("gadget", testutil.T(gadget)), testutil.M(decl.MarkerBindsOptionalOf)))
		if withBinding {
			m.AddMethod(testutil.StaticProvides("provideGadget", testutil.T(gadget)))
		}
		c := testutil.Component("C", []*decl.Element{m}, nil)
		c.AddMethod(testutil.AbstractMethod("gadget", decl.OptionalOf(testutil.T(gadget))))
		return env, c, gadget
	}

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		env, c, gadget := build(t, false)
		g, err := env.Resolve(c)
		require.NoError(t, err)

		b, ok := g.Binding(env.Key(t, decl.OptionalOf(testutil.T(gadget))))
		require.True(t, ok)
		assert.Equal(t, binding.Optional, b.Kind)
		assert.Empty(t, b.Dependencies)
	})

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		env, c, gadget := build(t, true)
		g, err := env.Resolve(c)
		require.NoError(t, err)

		b, ok := g.Binding(env.Key(t, decl.OptionalOf(testutil.T(gadget))))
		require.True(t, ok)
		require.Len(t, b.Dependencies, 1)
		assert.Equal(t, "app.Gadget", b.Dependencies[0].Key.String())
		assert.True(t, g.Owns(b.Dependencies[0].Key))
	})

	t.Run("bound in child only", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		gadget := testutil.Interface("Gadget")
		optional := decl.OptionalOf(testutil.T(gadget))

		parentModule := testutil.AbstractModule("ParentModule")
		parentModule.AddMethod(testutil.With(testutil.AbstractMethod("gadget", testutil.T(gadget)), testutil.M(decl.MarkerBindsOptionalOf)))
		childModule := testutil.AbstractModule("ChildModule")
		childModule.AddMethod(testutil.StaticProvides("provideGadget", testutil.T(gadget)))

		child := testutil.Subcomponent("Child", childModule)
		child.AddMethod(testutil.AbstractMethod("gadget", optional))
		parent := testutil.Component("Parent", []*decl.Element{parentModule}, nil)
		parent.AddMethod(
			testutil.AbstractMethod("gadget", optional),
			testutil.AbstractMethod("child", testutil.T(child)),
		)

		g, err := env.Resolve(parent)
		require.NoError(t, err)
		key := env.Key(t, optional)

		pb, ok := g.Binding(key)
		require.True(t, ok)
		assert.Empty(t, pb.Dependencies)

		require.Len(t, g.Children(), 1)
		cg := g.Children()[0]
		assert.True(t, cg.Owns(key))
		cb, ok := cg.Binding(key)
		require.True(t, ok)
		require.Len(t, cb.Dependencies, 1)
		assert.Equal(t, "app.Gadget", cb.Dependencies[0].Key.String())
	})

	t.Run("same resolution is shared with the parent", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		gadget := testutil.Interface("Gadget")
		optional := decl.OptionalOf(testutil.T(gadget))

		m := testutil.AbstractModule("M")
		m.AddMethod(testutil.With(testutil.AbstractMethod("gadget", testutil.T(gadget)), testutil.M(decl.MarkerBindsOptionalOf)))
		child := testutil.Subcomponent("Child")
		child.AddMethod(testutil.AbstractMethod("gadget", optional))
		parent := testutil.Component("Parent", []*decl.Element{m}, nil)
		parent.AddMethod(testutil.AbstractMethod("child", testutil.T(child)))

		g, err := env.Resolve(parent)
		require.NoError(t, err)
		key := env.Key(t, optional)
		assert.True(t, g.Owns(key))
		assert.False(t, g.Children()[0].Owns(key))
	})
}

func TestResolve_ComponentInputs(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	widget := testutil.Class("Widget")
	gadget := testutil.Interface("Gadget")

	deps := testutil.Interface("Deps")
	deps.AddMethod(testutil.AbstractMethod("gadget", testutil.T(gadget)))

	c := testutil.Component("C", nil, []*decl.Element{deps})
	factory := testutil.Interface("Factory", testutil.M(decl.MarkerComponentFactory))
	factory.AddMethod(testutil.AbstractMethod("create", testutil.T(c),
		testutil.Param("widget", testutil.T(widget), testutil.M(decl.MarkerBindsInstance)),
		testutil.Param("deps", testutil.T(deps)),
	))
	c.AddNested(factory)
	c.AddMethod(
		testutil.AbstractMethod("widget", testutil.T(widget)),
		testutil.AbstractMethod("gadget", testutil.T(gadget)),
		testutil.AbstractMethod("self", testutil.T(c)),
	)

	g, err := env.Resolve(c)
	require.NoError(t, err)

	kinds := make(map[string]binding.Kind)
	for _, b := range g.Bindings() {
		kinds[b.Key.String()] = b.Kind
	}
	assert.Equal(t, map[string]binding.Kind{
		"app.Widget": binding.BoundInstance,
		"app.Gadget": binding.ComponentProvision,
		"app.Deps":   binding.ComponentDependency,
		"app.C":      binding.Component,
	}, kinds)
}

func TestResolve_MembersInjection(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	clock := testutil.Interface("Clock")
	view := testutil.Class("View")
	field := testutil.Field("clock", testutil.T(clock), testutil.M(decl.MarkerInject))
	view.AddField(field)
	env.Register(t, field)

	plain := testutil.Class("Plain")

	m := testutil.AbstractModule("M")
	m.AddMethod(testutil.StaticProvides("clock", testutil.T(clock)))
	c := testutil.Component("C", []*decl.Element{m}, nil)
	c.AddMethod(
		testutil.AbstractMethod("inject", nil, testutil.Param("v", testutil.T(view))),
		testutil.AbstractMethod("injectPlain", nil, testutil.Param("p", testutil.T(plain))),
	)

	g, err := env.Resolve(c)
	require.NoError(t, err)

	mi := g.MembersInjectionBindings()
	require.Len(t, mi, 2)
	assert.Equal(t, "app.View", mi[0].Key.String())
	require.Len(t, mi[0].Dependencies, 1)
	assert.Equal(t, "app.Clock", mi[0].Dependencies[0].Key.String())
	assert.Empty(t, mi[1].Dependencies)

	_, ok := g.Binding(env.Key(t, testutil.T(clock)))
	assert.True(t, ok)
}

func TestResolve_GenericInjectType(t *testing.T) {
	t.Parallel()

	env := testutil.NewEnv(t)
	foo := testutil.Class("Foo")
	fooCtor := testutil.InjectCtor()
	foo.AddConstructor(fooCtor)

	box := testutil.Generic(testutil.Class("Box"), "T")
	boxCtor := testutil.InjectCtor(testutil.Param("item", decl.Var("T")))
	box.AddConstructor(boxCtor)
	env.Register(t, fooCtor, boxCtor)

	c := testutil.Component("C", nil, nil)
	c.AddMethod(testutil.AbstractMethod("box", testutil.T(box, testutil.T(foo))))

	g, err := env.Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.Foo", "app.Box[app.Foo]"}, keyStrings(g))

	b, ok := g.Binding(env.Key(t, testutil.T(box, testutil.T(foo))))
	require.True(t, ok)
	assert.Equal(t, binding.Injection, b.Kind)
	require.Len(t, b.Dependencies, 1)
	assert.Equal(t, env.Key(t, testutil.T(foo)), b.Dependencies[0].Key)
}

func TestValidateModule(t *testing.T) {
	t.Parallel()

	widget := testutil.Class("Widget")
	gadget := testutil.Interface("Gadget")

	t.Run("tolerates unbound dependencies and scopes", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		m := testutil.Module("M")
		m.AddMethod(testutil.With(
			testutil.Provides("widget", testutil.T(widget), testutil.Param("g", testutil.T(gadget))),
			testutil.Scope("Request"),
		))

		d, err := env.Components.ModuleComponentDescriptor(m)
		require.NoError(t, err)
		g, err := env.Resolver.ValidateModule(d)
		require.NoError(t, err)

		_, ok := g.Binding(env.Key(t, testutil.T(widget)))
		assert.True(t, ok)
		_, ok = g.Binding(env.Key(t, testutil.T(m)))
		assert.True(t, ok, "module instance binding")
	})

	t.Run("tolerates scoped injection bindings", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		shop := testutil.NewCoffeeShop()
		env.Register(t, shop.Sites()...)

		d, err := env.Components.ModuleComponentDescriptor(shop.DripModule)
		require.NoError(t, err)
		g, err := env.Resolver.ValidateModule(d)
		require.NoError(t, err)
		assert.True(t, g.Owns(env.Key(t, testutil.T(shop.ElectricHeater))))
	})

	t.Run("reports duplicates", func(t *testing.T) {
		t.Parallel()

		env := testutil.NewEnv(t)
		m := testutil.AbstractModule("M")
		m.AddMethod(
			testutil.StaticProvides("one", testutil.T(widget)),
			testutil.StaticProvides("two", testutil.T(widget)),
		)

		d, err := env.Components.ModuleComponentDescriptor(m)
		require.NoError(t, err)
		_, err = env.Resolver.ValidateModule(d)
		de := testutil.RequireKind(t, err, diag.DuplicateBinding)
		assert.Same(t, m, de.Entities[0])
	})
}
