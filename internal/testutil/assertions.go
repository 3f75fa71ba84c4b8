package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/bindgraph/internal/diag"
)

// RequireKind fails the test unless err is a diagnostic of the given kind.
func RequireKind(t *testing.T, err error, kind diag.Kind) *diag.Error {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind, "expected %s, got: %v", kind, err)

	var de *diag.Error
	require.True(t, errors.As(err, &de))
	return de
}

// AssertEntity checks that err is a diagnostic naming entity.
func AssertEntity(t *testing.T, err error, entity any) {
	t.Helper()
	var de *diag.Error
	if !assert.True(t, errors.As(err, &de), "expected a diagnostic, got: %v", err) {
		return
	}
	assert.Contains(t, de.Entities, entity)
}
