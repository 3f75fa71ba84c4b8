// Package inject turns discovered injection sites into registry entries,
// processing each site at most once per round.
package inject

import (
	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/round"
)

// SiteRegistry accepts classified injection sites and may reject them with a
// structural error.
type SiteRegistry interface {
	TryRegisterInjectConstructor(c *decl.Constructor) error
	TryRegisterInjectField(f *decl.Field) error
	TryRegisterInjectMethod(m *decl.Method) error
}

// Registrar dispatches injection sites to a SiteRegistry. A site that was
// already processed this round is skipped, whatever the outcome of its first
// registration, so a declaration carrying several triggering markers reports
// at most one error.
type Registrar struct {
	registry  SiteRegistry
	processed map[decl.Entity]struct{}
}

var _ round.Clearable = (*Registrar)(nil)

// NewRegistrar creates a registrar feeding registry.
func NewRegistrar(registry SiteRegistry) *Registrar {
	return &Registrar{
		registry:  registry,
		processed: make(map[decl.Entity]struct{}),
	}
}

// TryRegister registers site with the registry unless it was seen before.
func (r *Registrar) TryRegister(site decl.Entity) error {
	if _, done := r.processed[site]; done {
		return nil
	}
	r.processed[site] = struct{}{}

	switch s := site.(type) {
	case *decl.Constructor:
		return r.registry.TryRegisterInjectConstructor(s)
	case *decl.Field:
		return r.registry.TryRegisterInjectField(s)
	case *decl.Method:
		return r.registry.TryRegisterInjectMethod(s)
	default:
		return diag.New(diag.IllegalConfiguration, site)
	}
}

// Processed reports whether site was registered this round.
func (r *Registrar) Processed(site decl.Entity) bool {
	_, ok := r.processed[site]
	return ok
}

// ClearCache forgets processed sites.
func (r *Registrar) ClearCache() {
	r.processed = make(map[decl.Entity]struct{})
}
