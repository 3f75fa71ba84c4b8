// Package bindgraph builds dependency-injection binding graphs from
// declaration models at compile time.
//
// # Overview
//
// An introspection layer (a source parser or an annotation processor) turns
// annotated declarations into the model of package decl: elements, types,
// methods, constructors, fields and their markers. bindgraph reads that model
// and produces:
//   - Component descriptors: dependencies, transitive modules, scopes, entry
//     points, creators and child subcomponents of each component
//   - Binding graphs: exactly one binding per key for every component, with
//     multibindings merged across the component hierarchy
//   - Structural errors, each carrying a kind and the offending declarations
//
// Nothing is instantiated. bindgraph only decides whether a graph is well
// formed and what it consists of; code generation is left to the caller.
//
// # Basic Usage
//
// Create a processor, register injection sites, then process the roots:
//
//	p, err := bindgraph.New(bindgraph.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p.NewRound()
//	defer p.EndRound()
//
//	for _, site := range injectSites {
//	    if err := p.RegisterInjectionSite(site); err != nil {
//	        report(err)
//	    }
//	}
//
//	res := p.Process(components...)
//	for _, e := range res.Elements {
//	    if err := res.Errors[e]; err != nil {
//	        report(err)
//	    }
//	}
//
// # Rounds
//
// Every memoized descriptor, binding and processed site belongs to a round.
// EndRound clears all of them so that a long-lived process can run any number
// of rounds without retaining declarations from earlier ones. Each round gets
// a random ID, available from RoundID and attached to log records.
//
// # Keys and Requests
//
// A key is a canonical type plus an optional qualifier. Requests for
// Provider, Lazy, Producer, Future and Optional wrappers are unwrapped to
// the key of the wrapped type; the wrapper only changes the request kind.
// Provider and Lazy requests break dependency cycles.
//
// # Multibindings
//
// Set and map contributions from every module of a component and of its
// ancestors are merged into one synthetic binding per key. Two map
// contributions with the same map key are reported as DuplicateMapKey.
//
// # Errors
//
// Every defect is an *Error. Match on its kind with errors.Is:
//
//	if errors.Is(err, bindgraph.MissingBinding) {
//	    // ...
//	}
//
// The first entity of an Error is the component or module being processed;
// the remaining entities narrow down the declaration at fault.
//
// # Configuration
//
// Options can be given directly or loaded from YAML with LoadConfig:
//
//	strictWildcardKeys: false
//	fullBindingGraphValidation: true
//	logLevel: debug
//
// # Thread Safety
//
// A Processor is not safe for concurrent use. Use one processor per
// goroutine.
package bindgraph
