package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/testutil"
)

func contribution(name string, key keys.Key, c binding.ContributionType, mapKey string) *binding.Binding {
	return &binding.Binding{
		Key:          key,
		Kind:         binding.Provision,
		Contribution: c,
		Element:      testutil.Provides(name, decl.Primitive("int")),
		MapKey:       mapKey,
		Dependencies: []binding.DependencyRequest{{Key: keys.Key{Type: name + "Dep"}}},
	}
}

func TestMultibound_Set(t *testing.T) {
	t.Parallel()

	key := keys.Key{Type: "bindgraph.Set[int]", Multi: keys.Set}
	a := contribution("a", key, binding.IntoSet, "")
	b := contribution("b", key, binding.IntoSet, "")
	declaration := &binding.Binding{Key: key, Kind: binding.MultibindingDeclaration}

	agg, err := binding.Multibound(key, []*binding.Binding{a, declaration, b, a})
	require.NoError(t, err)

	assert.Equal(t, binding.MultiboundSet, agg.Kind)
	assert.Equal(t, []*binding.Binding{a, b}, agg.Contributions)
	require.Len(t, agg.Dependencies, 2)
	assert.Equal(t, "aDep", agg.Dependencies[0].Key.Type)
	assert.Equal(t, "bDep", agg.Dependencies[1].Key.Type)
}

func TestMultibound_EmptyDeclaration(t *testing.T) {
	t.Parallel()

	key := keys.Key{Type: "bindgraph.Set[int]", Multi: keys.Set}
	agg, err := binding.Multibound(key, []*binding.Binding{{Key: key, Kind: binding.MultibindingDeclaration}})
	require.NoError(t, err)
	assert.Empty(t, agg.Contributions)
	assert.Empty(t, agg.Dependencies)
}

func TestMultibound_Map(t *testing.T) {
	t.Parallel()

	key := keys.Key{Type: "bindgraph.Map[bindgraph.String,int]", Multi: keys.Map}

	t.Run("distinct keys", func(t *testing.T) {
		t.Parallel()

		a := contribution("a", key, binding.IntoMap, "x")
		b := contribution("b", key, binding.IntoMap, "y")
		agg, err := binding.Multibound(key, []*binding.Binding{a, b, a})
		require.NoError(t, err)
		assert.Equal(t, binding.MultiboundMap, agg.Kind)
		assert.Len(t, agg.Contributions, 2)
	})

	t.Run("duplicate map key", func(t *testing.T) {
		t.Parallel()

		a := contribution("a", key, binding.IntoMap, "x")
		b := contribution("b", key, binding.IntoMap, "x")
		_, err := binding.Multibound(key, []*binding.Binding{a, b})
		de := testutil.RequireKind(t, err, diag.DuplicateMapKey)
		assert.Contains(t, de.Entities, "x")
		assert.Contains(t, de.Entities, a.Element)
		assert.Contains(t, de.Entities, b.Element)
	})
}

func TestRequestFactory_ForEntity(t *testing.T) {
	t.Parallel()

	k := keys.NewFactory(false, nil)
	f := binding.NewRequestFactory(k)
	widget := testutil.Class("Widget")
	w := testutil.T(widget)

	tests := []struct {
		name     string
		typ      *decl.Type
		wantKind binding.RequestKind
		wantKey  string
	}{
		{"instance", w, binding.Instance, "app.Widget"},
		{"provider", decl.ProviderOf(w), binding.Provider, "app.Widget"},
		{"lazy", decl.LazyOf(w), binding.Lazy, "app.Widget"},
		{"provider of lazy", decl.ProviderOf(decl.LazyOf(w)), binding.Provider, "app.Widget"},
		{"producer", decl.ProducerOf(w), binding.Producer, "app.Widget"},
		{"future", decl.FutureOf(w), binding.Future, "app.Widget"},
		{"set", decl.SetOf(w), binding.Instance, "bindgraph.Set[app.Widget]"},
		{"map of providers", decl.MapOf(testutil.StringType(), decl.ProviderOf(w)), binding.Instance, "bindgraph.Map[bindgraph.String,app.Widget]"},
		{"optional", decl.OptionalOf(w), binding.Instance, "bindgraph.Optional[app.Widget]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := testutil.Param("p", tt.typ, testutil.M(decl.MarkerNullable))
			req, err := f.ForParam(p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, req.Kind)
			assert.Equal(t, tt.wantKey, req.Key.Type)
			assert.True(t, req.Nullable)
			assert.Same(t, p, req.Element)
		})
	}

	t.Run("raw wrapper", func(t *testing.T) {
		t.Parallel()

		_, err := f.ForParam(testutil.Param("p", decl.Declared(decl.ProviderElement)))
		testutil.RequireKind(t, err, diag.IllegalConfiguration)
	})

	t.Run("only provider and lazy break cycles", func(t *testing.T) {
		t.Parallel()

		assert.True(t, binding.Provider.BreaksCycles())
		assert.True(t, binding.Lazy.BreaksCycles())
		assert.False(t, binding.Instance.BreaksCycles())
		assert.False(t, binding.Producer.BreaksCycles())
	})
}
