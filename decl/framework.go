package decl

// FrameworkPackage is the package that declares the framework types the graph
// builder gives special meaning to.
const FrameworkPackage = "bindgraph"

// ProductionScope is the implicit scope of production components.
const ProductionScope = FrameworkPackage + ".ProductionScope"

// Well-known framework elements. Keys over these types are aggregates
// (Set, Map), optional bindings (Optional) or request wrappers that are
// unwrapped into a request kind (Provider, Lazy, Producer, Future).
var (
	SetElement      = frameworkInterface("Set", "E")
	MapElement      = frameworkInterface("Map", "K", "V")
	OptionalElement = frameworkInterface("Optional", "T")
	ProviderElement = frameworkInterface("Provider", "T")
	LazyElement     = frameworkInterface("Lazy", "T")
	ProducerElement = frameworkInterface("Producer", "T")
	FutureElement   = frameworkInterface("Future", "T")
	StringElement   = &Element{Package: FrameworkPackage, Name: "String", Kind: ElementClass}
)

func frameworkInterface(name string, params ...string) *Element {
	return &Element{
		Package:    FrameworkPackage,
		Name:       name,
		Kind:       ElementInterface,
		Abstract:   true,
		TypeParams: params,
	}
}

// SetOf returns Set<elem>.
func SetOf(elem *Type) *Type { return Declared(SetElement, elem) }

// MapOf returns Map<key, value>.
func MapOf(key, value *Type) *Type { return Declared(MapElement, key, value) }

// OptionalOf returns Optional<t>.
func OptionalOf(t *Type) *Type { return Declared(OptionalElement, t) }

// ProviderOf returns Provider<t>.
func ProviderOf(t *Type) *Type { return Declared(ProviderElement, t) }

// LazyOf returns Lazy<t>.
func LazyOf(t *Type) *Type { return Declared(LazyElement, t) }

// ProducerOf returns Producer<t>.
func ProducerOf(t *Type) *Type { return Declared(ProducerElement, t) }

// FutureOf returns Future<t>.
func FutureOf(t *Type) *Type { return Declared(FutureElement, t) }

// IsFramework reports whether e is one of the well-known framework elements.
func IsFramework(e *Element) bool {
	switch e {
	case SetElement, MapElement, OptionalElement, ProviderElement, LazyElement, ProducerElement, FutureElement, StringElement:
		return true
	}
	return false
}
