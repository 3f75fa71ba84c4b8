package bindgraph

import (
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/dig"

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

// ComponentDescriptor is the resolved shape of a component, subcomponent or
// fictional module component.
type ComponentDescriptor = component.Descriptor

// Graph is the resolved binding graph of one component.
type Graph = resolver.Graph

// Processor builds component descriptors and binding graphs from declaration
// models. Memoized state lives for one round.
//
// A Processor is not safe for concurrent use.
type Processor struct {
	logger     *slog.Logger
	config     Config
	round      *round.Context
	registrar  *inject.Registrar
	components *component.Factory
	resolver   *resolver.Resolver
}

// processorParams are the services a Processor is assembled from.
type processorParams struct {
	dig.In

	Config       Config
	Logger       *slog.Logger
	Round        *round.Context
	Validator    *validation.SuperficialValidator
	Registry     *binding.Registry
	Registrar    *inject.Registrar
	Requirements *requirement.Factory
	Modules      *modules.Factory
	Components   *component.Factory
	Resolver     *resolver.Resolver
}

// New creates a Processor.
func New(opts ...Option) (*Processor, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	c := dig.New()
	providers := []any{
		func() Config { return o.config },
		func() *slog.Logger { return o.logger },
		func(cfg Config) *keys.Factory {
			return keys.NewFactory(cfg.StrictWildcardKeys, o.secondary)
		},
		round.NewContext,
		validation.NewSuperficialValidator,
		binding.NewRequestFactory,
		func(k *keys.Factory, requests *binding.RequestFactory, v *validation.SuperficialValidator) *binding.Registry {
			return binding.NewRegistry(k, requests, v)
		},
		func(r *binding.Registry) *inject.Registrar {
			return inject.NewRegistrar(r)
		},
		requirement.NewFactory,
		modules.NewFactory,
		component.NewFactory,
		func(logger *slog.Logger, k *keys.Factory, r *binding.Registry, req *requirement.Factory) *resolver.Resolver {
			return resolver.New(logger, k, r, req)
		},
	}
	for _, provider := range providers {
		if err := c.Provide(provider); err != nil {
			return nil, fmt.Errorf("providing processor services: %w", err)
		}
	}

	var p *Processor
	err = c.Invoke(func(params processorParams) {
		params.Round.Register(
			params.Validator,
			params.Registry,
			params.Registrar,
			params.Requirements,
			params.Modules,
			params.Components,
		)
		p = &Processor{
			logger:     params.Logger,
			config:     params.Config,
			round:      params.Round,
			registrar:  params.Registrar,
			components: params.Components,
			resolver:   params.Resolver,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("assembling processor: %w", err)
	}
	return p, nil
}

// Config returns the processor's effective configuration.
func (p *Processor) Config() Config {
	return p.config
}

// NewRound starts a round and returns its ID. A round still in progress is
// ended first.
func (p *Processor) NewRound() string {
	return p.round.NewRound()
}

// EndRound clears every memoized descriptor, binding and processed site.
func (p *Processor) EndRound() {
	p.round.EndRound()
}

// RoundID returns the ID of the current or last round.
func (p *Processor) RoundID() string {
	return p.round.ID()
}

// RegisterInjectionSite records an inject-marked constructor, field or method.
// Registering the same site again in a round is a no-op.
func (p *Processor) RegisterInjectionSite(site decl.Entity) error {
	return p.registrar.TryRegister(site)
}

// RootComponent returns the descriptor of a component or production component.
func (p *Processor) RootComponent(e *decl.Element) (*ComponentDescriptor, error) {
	return p.components.RootComponentDescriptor(e)
}

// Subcomponent returns the descriptor of a subcomponent or production
// subcomponent.
func (p *Processor) Subcomponent(e *decl.Element) (*ComponentDescriptor, error) {
	return p.components.SubcomponentDescriptor(e)
}

// ModuleComponent returns the descriptor of a fictional component installing
// only the module e.
func (p *Processor) ModuleComponent(e *decl.Element) (*ComponentDescriptor, error) {
	return p.components.ModuleComponentDescriptor(e)
}

// Resolve resolves the binding graph of a root descriptor and its children.
func (p *Processor) Resolve(d *ComponentDescriptor) (*Graph, error) {
	return p.resolver.Resolve(d)
}

// ValidateModule resolves the bindings of module e in isolation. Keys without
// a binding are tolerated.
func (p *Processor) ValidateModule(e *decl.Element) (*Graph, error) {
	d, err := p.components.ModuleComponentDescriptor(e)
	if err != nil {
		return nil, err
	}
	return p.resolver.ValidateModule(d)
}

// Result is the outcome of Process.
type Result struct {
	// Elements lists every processed element in processing order, including
	// modules validated because of full binding graph validation.
	Elements []*decl.Element

	Graphs map[*decl.Element]*Graph
	Errors map[*decl.Element]error
}

func newResult() *Result {
	return &Result{
		Graphs: make(map[*decl.Element]*Graph),
		Errors: make(map[*decl.Element]error),
	}
}

func (r *Result) add(e *decl.Element, g *Graph, err error) {
	r.Elements = append(r.Elements, e)
	if err != nil {
		r.Errors[e] = err
		return
	}
	r.Graphs[e] = g
}

func (r *Result) processed(e *decl.Element) bool {
	_, ok := r.Graphs[e]
	if !ok {
		_, ok = r.Errors[e]
	}
	return ok
}

// OK reports whether every element was processed without error.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Err joins the errors in processing order, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, e := range r.Elements {
		if err, ok := r.Errors[e]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Process resolves every root: components are resolved into graphs and
// modules are validated in isolation. A failing root does not stop the
// others. When no round is active, Process runs inside its own round.
func (p *Processor) Process(roots ...*decl.Element) *Result {
	if !p.round.Active() {
		p.round.NewRound()
		defer p.round.EndRound()
	}

	res := newResult()
	for _, e := range roots {
		if res.processed(e) {
			continue
		}
		if modules.IsModule(e) {
			g, err := p.ValidateModule(e)
			p.record(res, e, g, err)
			continue
		}

		d, err := p.RootComponent(e)
		if err != nil {
			p.record(res, e, nil, err)
			continue
		}
		g, err := p.Resolve(d)
		p.record(res, e, g, err)

		if p.config.FullBindingGraphValidation {
			for _, m := range d.ModuleTypes() {
				if res.processed(m) {
					continue
				}
				g, err := p.ValidateModule(m)
				p.record(res, m, g, err)
			}
		}
	}
	return res
}

func (p *Processor) record(res *Result, e *decl.Element, g *Graph, err error) {
	res.add(e, g, err)
	if err != nil {
		p.logger.Debug("processing failed",
			"round", p.round.ID(),
			"element", e.QualifiedName(),
			"error", err)
	}
}
