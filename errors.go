package bindgraph

import (
	"github.com/junioryono/bindgraph/internal/diag"
	"github.com/junioryono/bindgraph/internal/graph"
	"github.com/junioryono/bindgraph/internal/keys"
)

// Error is a structural defect reported while building a binding graph. It
// carries a Kind and the offending entities; errors.Is(err, TooManyParameters)
// matches on kind.
type Error = diag.Error

// Kind classifies an Error.
type Kind = diag.Kind

// CycleError describes the keys of a dependency cycle. It is the cause of a
// DependencyCycle error.
type CycleError = graph.CycleError

// SecondaryLookup recovers field qualifiers not visible to the introspection
// layer.
type SecondaryLookup = keys.SecondaryLookup

// SecondaryLookupFunc adapts a function to SecondaryLookup.
type SecondaryLookupFunc = keys.SecondaryLookupFunc

// Error kinds.
const (
	InvalidRequirementShape       = diag.InvalidRequirementShape
	IllegalConfiguration          = diag.IllegalConfiguration
	ExcessiveOrInvalidShape       = diag.ExcessiveOrInvalidShape
	TooManyParameters             = diag.TooManyParameters
	CyclicSubcomponentDeclaration = diag.CyclicSubcomponentDeclaration
	TypeNotResolvable             = diag.TypeNotResolvable
	DuplicateMapKey               = diag.DuplicateMapKey
	MissingBinding                = diag.MissingBinding
	DuplicateBinding              = diag.DuplicateBinding
	DependencyCycle               = diag.DependencyCycle
	IncompatibleScope             = diag.IncompatibleScope
)

// KindOf returns the kind of the first Error in err's chain.
func KindOf(err error) (Kind, bool) {
	return diag.KindOf(err)
}
