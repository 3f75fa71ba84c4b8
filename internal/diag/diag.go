// Package diag defines the error kinds reported while building binding graphs.
//
// Errors carry a kind and the offending entities only. Formatting messages for
// humans is left to the caller.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a structural defect. Kind implements error so that
// errors.Is(err, diag.TooManyParameters) matches any *Error of that kind.
type Kind int

const (
	_ Kind = iota

	// InvalidRequirementShape: a requirement was derived from a non-declared
	// or unresolvable type.
	InvalidRequirementShape

	// IllegalConfiguration: marker misuse such as more than one qualifier, a
	// missing required marker or an invalid binding method.
	IllegalConfiguration

	// ExcessiveOrInvalidShape: a component method matches neither the
	// dependency-request nor the members-injection shape.
	ExcessiveOrInvalidShape

	// TooManyParameters: a component method takes more than one parameter.
	TooManyParameters

	// CyclicSubcomponentDeclaration: a subcomponent was re-entered while its
	// own descriptor was being built.
	CyclicSubcomponentDeclaration

	// TypeNotResolvable: a type in the hierarchy or one of its markers could
	// not be fully resolved.
	TypeNotResolvable

	// DuplicateMapKey: two map contributions share a contributed key.
	DuplicateMapKey

	// MissingBinding: a requested key has no binding.
	MissingBinding

	// DuplicateBinding: a unique key is bound more than once.
	DuplicateBinding

	// DependencyCycle: bindings depend on each other without a Provider or
	// Lazy request breaking the cycle.
	DependencyCycle

	// IncompatibleScope: a scoped binding is not owned by a component
	// carrying its scope.
	IncompatibleScope
)

var kindNames = [...]string{
	InvalidRequirementShape:       "invalid requirement shape",
	IllegalConfiguration:          "illegal configuration",
	ExcessiveOrInvalidShape:       "excessive or invalid shape",
	TooManyParameters:             "too many parameters",
	CyclicSubcomponentDeclaration: "cyclic subcomponent declaration",
	TypeNotResolvable:             "type not resolvable",
	DuplicateMapKey:               "duplicate map key",
	MissingBinding:                "missing binding",
	DuplicateBinding:              "duplicate binding",
	DependencyCycle:               "dependency cycle",
	IncompatibleScope:             "incompatible scope",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Error() string {
	return k.String()
}

var _ error = (*Error)(nil)

// Error is a structural defect together with the entities it concerns. The
// first entity is the most specific context known when the error surfaced;
// component builders prepend the component being built.
type Error struct {
	Kind     Kind
	Entities []any
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if len(e.Entities) > 0 {
		b.WriteString(": ")
		for i, ent := range e.Entities {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprint(&b, ent)
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Is matches a Kind target or another *Error of the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return t != nil && e.Kind == t.Kind
	}
	return false
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an error of kind k about entities.
func New(k Kind, entities ...any) *Error {
	return &Error{Kind: k, Entities: entities}
}

// Wrap returns an error of kind k about entities caused by cause.
func Wrap(k Kind, cause error, entities ...any) *Error {
	return &Error{Kind: k, Entities: entities, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// Attach prepends entity to the entities of the outermost *Error in err's
// chain, keeping its kind. When that *Error is wrapped by other errors, the
// whole chain becomes the cause of a new *Error naming entity, so no wrapping
// context is lost. Errors without a kind are returned unchanged.
func Attach(err error, entity any) error {
	if err == nil {
		return nil
	}
	var de *Error
	if !errors.As(err, &de) {
		return err
	}
	if len(de.Entities) > 0 && de.Entities[0] == entity {
		return err
	}
	if de != err {
		return &Error{Kind: de.Kind, Entities: []any{entity}, Cause: err}
	}
	entities := make([]any, 0, len(de.Entities)+1)
	entities = append(entities, entity)
	entities = append(entities, de.Entities...)
	return &Error{Kind: de.Kind, Entities: entities, Cause: de.Cause}
}
