package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/modules"
	"github.com/junioryono/bindgraph/internal/testutil"
)

func newFactory() *modules.Factory {
	k := keys.NewFactory(false, nil)
	return modules.NewFactory(k, binding.NewRequestFactory(k))
}

func elements(ds []*modules.Descriptor) []*decl.Element {
	out := make([]*decl.Element, len(ds))
	for i, d := range ds {
		out[i] = d.Element
	}
	return out
}

func TestTransitiveModules(t *testing.T) {
	t.Parallel()

	t.Run("breadth first and deduplicated", func(t *testing.T) {
		t.Parallel()

		d := testutil.Module("D")
		b := testutil.Module("B", d)
		c := testutil.Module("C", d)
		a := testutil.Module("A", b, c)

		got, err := newFactory().TransitiveModules([]*decl.Element{a})
		require.NoError(t, err)
		assert.Equal(t, []*decl.Element{a, b, c, d}, elements(got))
	})

	t.Run("cyclic includes terminate", func(t *testing.T) {
		t.Parallel()

		a := testutil.Module("A")
		b := testutil.Module("B", a)
		// Close the cycle A -> B -> A.
		m, _ := a.Marker(decl.MarkerModule)
		m.Types[decl.AttrIncludes] = []*decl.Type{testutil.T(b)}

		got, err := newFactory().TransitiveModules([]*decl.Element{a})
		require.NoError(t, err)
		assert.Equal(t, []*decl.Element{a, b}, elements(got))
	})

	t.Run("module supertypes are included", func(t *testing.T) {
		t.Parallel()

		base := testutil.AbstractModule("Base")
		child := testutil.Extends(testutil.Module("Child"), testutil.T(base))

		got, err := newFactory().TransitiveModules([]*decl.Element{child})
		require.NoError(t, err)
		assert.Equal(t, []*decl.Element{child, base}, elements(got))
	})

	t.Run("including a non-module fails", func(t *testing.T) {
		t.Parallel()

		a := testutil.Module("A", testutil.Class("NotAModule"))
		_, err := newFactory().TransitiveModules([]*decl.Element{a})
		testutil.RequireKind(t, err, diag.IllegalConfiguration)
	})
}

func TestFactory_Create_Memoized(t *testing.T) {
	t.Parallel()

	f := newFactory()
	m := testutil.Module("M")

	d1, err := f.Create(m)
	require.NoError(t, err)
	d2, err := f.Create(m)
	require.NoError(t, err)
	assert.Same(t, d1, d2)

	f.ClearCache()
	d3, err := f.Create(m)
	require.NoError(t, err)
	assert.NotSame(t, d1, d3)
}

func TestFactory_Bindings(t *testing.T) {
	t.Parallel()

	widget := testutil.Class("Widget")
	gadget := testutil.Interface("Gadget")

	m := testutil.AbstractModule("M")
	m.AddMethod(
		testutil.StaticProvides("widget", testutil.T(widget), testutil.Param("g", decl.ProviderOf(testutil.T(gadget)))),
		testutil.With(testutil.Binds("gadget", testutil.T(gadget), testutil.T(widget)), testutil.Scope("Singleton")),
		testutil.With(testutil.StaticProvides("oneWidget", testutil.T(widget)), testutil.M(decl.MarkerIntoSet)),
		testutil.With(testutil.StaticProvides("keyedWidget", testutil.T(widget)), testutil.M(decl.MarkerIntoMap), testutil.StringKey("k")),
		testutil.With(testutil.AbstractMethod("widgets", decl.SetOf(testutil.T(widget))), testutil.M(decl.MarkerMultibinds)),
		testutil.With(testutil.AbstractMethod("maybeGadget", testutil.T(gadget)), testutil.M(decl.MarkerBindsOptionalOf)),
		testutil.Method("helper", testutil.T(widget)),
	)

	d, err := newFactory().Create(m)
	require.NoError(t, err)
	require.Len(t, d.Bindings, 6)

	provision := d.Bindings[0]
	assert.Equal(t, binding.Provision, provision.Kind)
	assert.Equal(t, "app.Widget", provision.Key.String())
	require.Len(t, provision.Dependencies, 1)
	assert.Equal(t, binding.Provider, provision.Dependencies[0].Kind)
	assert.Same(t, m, provision.Module)

	delegate := d.Bindings[1]
	assert.Equal(t, binding.Delegate, delegate.Kind)
	assert.Equal(t, "@app.Singleton", delegate.Scope)

	intoSet := d.Bindings[2]
	assert.Equal(t, binding.IntoSet, intoSet.Contribution)
	assert.Equal(t, keys.Set, intoSet.Key.Multi)
	assert.Equal(t, "bindgraph.Set[app.Widget]", intoSet.Key.Type)

	intoMap := d.Bindings[3]
	assert.Equal(t, binding.IntoMap, intoMap.Contribution)
	assert.Equal(t, "k", intoMap.MapKey)
	assert.Equal(t, "bindgraph.Map[bindgraph.String,app.Widget]", intoMap.Key.Type)

	assert.Equal(t, binding.MultibindingDeclaration, d.Bindings[4].Kind)
	assert.Equal(t, intoSet.Key, d.Bindings[4].Key)

	optional := d.Bindings[5]
	assert.Equal(t, binding.OptionalDeclaration, optional.Kind)
	assert.Equal(t, "bindgraph.Optional[app.Gadget]", optional.Key.Type)
	require.Len(t, optional.Dependencies, 1)
	assert.Equal(t, "app.Gadget", optional.Dependencies[0].Key.Type)
}

func TestFactory_InvalidBindingMethods(t *testing.T) {
	t.Parallel()

	widget := testutil.Class("Widget")
	w := func() *decl.Type { return testutil.T(widget) }

	tests := []struct {
		name     string
		producer bool
		method   func() *decl.Method
		want     diag.Kind
	}{
		{
			name:   "provides returning void",
			method: func() *decl.Method { return testutil.Provides("run", nil) },
			want:   diag.ExcessiveOrInvalidShape,
		},
		{
			name: "abstract provides",
			method: func() *decl.Method {
				return testutil.With(testutil.AbstractMethod("w", w()), testutil.M(decl.MarkerProvides))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "two binding markers",
			method: func() *decl.Method {
				return testutil.With(testutil.Provides("w", w()), testutil.M(decl.MarkerBinds))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "contribution without binding marker",
			method: func() *decl.Method {
				return testutil.With(testutil.Method("w", w()), testutil.M(decl.MarkerIntoSet))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "into map without map key",
			method: func() *decl.Method {
				return testutil.With(testutil.Provides("w", w()), testutil.M(decl.MarkerIntoMap))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "elements into set of a non-set",
			method: func() *decl.Method {
				return testutil.With(testutil.Provides("w", w()), testutil.M(decl.MarkerElementsIntoSet))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "binds with two parameters",
			method: func() *decl.Method {
				return testutil.With(testutil.AbstractMethod("w", w(), testutil.Param("a", w()), testutil.Param("b", w())), testutil.M(decl.MarkerBinds))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "multibinds of a non-aggregate",
			method: func() *decl.Method {
				return testutil.With(testutil.AbstractMethod("w", w()), testutil.M(decl.MarkerMultibinds))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "produces outside a producer module",
			method: func() *decl.Method {
				return testutil.With(testutil.Method("w", w()), testutil.M(decl.MarkerProduces))
			},
			want: diag.IllegalConfiguration,
		},
		{
			name: "two scopes",
			method: func() *decl.Method {
				return testutil.With(testutil.Provides("w", w()), testutil.Scope("A"), testutil.Scope("B"))
			},
			want: diag.IllegalConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := testutil.Module("M")
			m.AddMethod(tt.method())
			_, err := newFactory().Create(m)
			testutil.RequireKind(t, err, tt.want)
		})
	}
}

func TestFactory_ProducerModule(t *testing.T) {
	t.Parallel()

	widget := testutil.Class("Widget")
	m := testutil.Class("Producers", decl.ModuleMarker(decl.MarkerProducerModule, nil, nil))
	m.AddMethod(testutil.With(testutil.Method("widget", decl.FutureOf(testutil.T(widget))), testutil.M(decl.MarkerProduces)))

	d, err := newFactory().Create(m)
	require.NoError(t, err)
	assert.Equal(t, modules.ProducerModule, d.Kind)
	require.Len(t, d.Bindings, 1)
	assert.Equal(t, binding.Production, d.Bindings[0].Kind)
	assert.Equal(t, "app.Widget", d.Bindings[0].Key.Type)
}

func TestFactory_Subcomponents(t *testing.T) {
	t.Parallel()

	child := testutil.Subcomponent("Child")
	m := testutil.Class("M", decl.ModuleMarker(decl.MarkerModule, nil, []*decl.Element{child}))

	d, err := newFactory().Create(m)
	require.NoError(t, err)
	require.Len(t, d.Subcomponents, 1)
	assert.Same(t, child, d.Subcomponents[0].Subcomponent)
	assert.Same(t, m, d.Subcomponents[0].Module)

	bad := testutil.Class("Bad", decl.ModuleMarker(decl.MarkerModule, nil, []*decl.Element{testutil.Interface("Plain")}))
	_, err = newFactory().Create(bad)
	testutil.RequireKind(t, err, diag.IllegalConfiguration)
}
