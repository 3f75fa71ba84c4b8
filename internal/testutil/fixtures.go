package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/binding"
	"github.com/junioryono/bindgraph/internal/component"
	"github.com/junioryono/bindgraph/internal/inject"
	"github.com/junioryono/bindgraph/internal/keys"
	"github.com/junioryono/bindgraph/internal/modules"
	"github.com/junioryono/bindgraph/internal/requirement"
	"github.com/junioryono/bindgraph/internal/resolver"
	"github.com/junioryono/bindgraph/internal/round"
	"github.com/junioryono/bindgraph/internal/validation"
)

// Env wires every stage of the graph builder the way the processor does,
// without a container.
type Env struct {
	Round        *round.Context
	Keys         *keys.Factory
	Requests     *binding.RequestFactory
	Validator    *validation.SuperficialValidator
	Registry     *binding.Registry
	Registrar    *inject.Registrar
	Requirements *requirement.Factory
	Modules      *modules.Factory
	Components   *component.Factory
	Resolver     *resolver.Resolver
}

// NewEnv returns an environment with an active round.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	e := &Env{Round: round.NewContext(nil)}
	e.Keys = keys.NewFactory(false, nil)
	e.Requests = binding.NewRequestFactory(e.Keys)
	e.Validator = validation.NewSuperficialValidator()
	e.Registry = binding.NewRegistry(e.Keys, e.Requests, e.Validator)
	e.Registrar = inject.NewRegistrar(e.Registry)
	e.Requirements = requirement.NewFactory(e.Keys)
	e.Modules = modules.NewFactory(e.Keys, e.Requests)
	e.Components = component.NewFactory(nil, e.Keys, e.Requests, e.Requirements, e.Modules)
	e.Resolver = resolver.New(nil, e.Keys, e.Registry, e.Requirements)

	e.Round.Register(e.Validator, e.Registry, e.Registrar, e.Requirements, e.Modules, e.Components)
	e.Round.NewRound()
	t.Cleanup(e.Round.EndRound)
	return e
}

// Register registers every site and fails the test on error.
func (e *Env) Register(t *testing.T, sites ...decl.Entity) {
	t.Helper()
	for _, s := range sites {
		require.NoError(t, e.Registrar.TryRegister(s), "registering %s", s)
	}
}

// Resolve builds the root descriptor of c and resolves its graph.
func (e *Env) Resolve(c *decl.Element) (*resolver.Graph, error) {
	d, err := e.Components.RootComponentDescriptor(c)
	if err != nil {
		return nil, err
	}
	return e.Resolver.Resolve(d)
}

// Key returns the unqualified key of t.
func (e *Env) Key(t *testing.T, typ *decl.Type) keys.Key {
	t.Helper()
	k, err := e.Keys.ForType(typ, nil)
	require.NoError(t, err)
	return k
}

// CoffeeShop is a small, valid component graph: a singleton-scoped component
// whose entry point needs constructor injection, a delegate and a lazy edge.
type CoffeeShop struct {
	Heater         *decl.Element
	ElectricHeater *decl.Element
	Pump           *decl.Element
	Thermosiphon   *decl.Element
	CoffeeMaker    *decl.Element

	PumpModule *decl.Element
	DripModule *decl.Element
	Shop       *decl.Element

	ElectricHeaterCtor *decl.Constructor
	ThermosiphonCtor   *decl.Constructor
	CoffeeMakerCtor    *decl.Constructor
}

// NewCoffeeShop builds a fresh CoffeeShop fixture.
func NewCoffeeShop() *CoffeeShop {
	f := &CoffeeShop{
		Heater:         Interface("Heater"),
		ElectricHeater: Class("ElectricHeater", Scope("Singleton")),
		Pump:           Interface("Pump"),
		Thermosiphon:   Class("Thermosiphon"),
		CoffeeMaker:    Class("CoffeeMaker"),
	}
	Extends(f.ElectricHeater, T(f.Heater))
	Extends(f.Thermosiphon, T(f.Pump))

	f.ElectricHeaterCtor = InjectCtor()
	f.ElectricHeater.AddConstructor(f.ElectricHeaterCtor)
	f.ThermosiphonCtor = InjectCtor(Param("heater", T(f.Heater)))
	f.Thermosiphon.AddConstructor(f.ThermosiphonCtor)
	f.CoffeeMakerCtor = InjectCtor(
		Param("heater", decl.LazyOf(T(f.Heater))),
		Param("pump", T(f.Pump)),
	)
	f.CoffeeMaker.AddConstructor(f.CoffeeMakerCtor)

	f.PumpModule = AbstractModule("PumpModule")
	f.PumpModule.AddMethod(Binds("bindPump", T(f.Pump), T(f.Thermosiphon)))

	f.DripModule = AbstractModule("DripModule", f.PumpModule)
	f.DripModule.AddMethod(Binds("bindHeater", T(f.Heater), T(f.ElectricHeater)))

	f.Shop = Component("CoffeeShop", []*decl.Element{f.DripModule}, nil, Scope("Singleton"))
	f.Shop.AddMethod(AbstractMethod("maker", T(f.CoffeeMaker)))
	return f
}

// Sites returns the fixture's injection sites.
func (f *CoffeeShop) Sites() []decl.Entity {
	return []decl.Entity{f.ElectricHeaterCtor, f.ThermosiphonCtor, f.CoffeeMakerCtor}
}
