package validation

import (
	"github.com/junioryono/bindgraph/decl"
	"github.com/junioryono/bindgraph/internal/round"
)

// SuperficialValidator validates an element, its markers, its supertypes and
// the types used by its inject-marked members. Results are memoized per
// element until the cache is cleared.
type SuperficialValidator struct {
	results *round.Cache[*decl.Element, error]
}

var _ round.Clearable = (*SuperficialValidator)(nil)

// NewSuperficialValidator creates a validator with an empty cache.
func NewSuperficialValidator() *SuperficialValidator {
	return &SuperficialValidator{results: round.NewCache[*decl.Element, error]()}
}

// ThrowIfNotValid returns a TypeNotResolvable error if e cannot be trusted.
// Failures are memoized as well, so a broken element reports the same error
// for the rest of the round.
func (v *SuperficialValidator) ThrowIfNotValid(e *decl.Element) error {
	if err, ok := v.results.Get(e); ok {
		return err
	}
	err := v.validate(e)
	v.results.Set(e, err)
	return err
}

func (v *SuperficialValidator) validate(e *decl.Element) error {
	if err := ValidateTypeHierarchy(e.Type()); err != nil {
		return err
	}
	for _, c := range e.Constructors {
		if !c.HasMarker(decl.MarkerInject) && !c.HasMarker(decl.MarkerAssistedInject) {
			continue
		}
		if err := validateMarkers(c, &c.Annotated); err != nil {
			return err
		}
		if err := validateParams(c.Params); err != nil {
			return err
		}
	}
	for _, f := range e.Fields {
		if !f.HasMarker(decl.MarkerInject) {
			continue
		}
		if err := validateMarkers(f, &f.Annotated); err != nil {
			return err
		}
		if err := ValidateTypeHierarchy(f.Type); err != nil {
			return err
		}
	}
	for _, m := range e.Methods {
		if !m.HasMarker(decl.MarkerInject) {
			continue
		}
		if err := validateMarkers(m, &m.Annotated); err != nil {
			return err
		}
		if err := validateParams(m.Params); err != nil {
			return err
		}
	}
	return nil
}

func validateParams(params []*decl.Param) error {
	for _, p := range params {
		if err := validateMarkers(p, &p.Annotated); err != nil {
			return err
		}
		if err := ValidateTypeHierarchy(p.Type); err != nil {
			return err
		}
	}
	return nil
}

// ClearCache forgets every memoized result.
func (v *SuperficialValidator) ClearCache() {
	v.results.ClearCache()
}
