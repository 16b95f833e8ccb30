package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{NewValidationError("bad %s", "input"), KindValidation},
		{NewInsufficientDataError("too few records"), KindInsufficientData},
		{NewNotFoundError("missing"), KindNotFound},
		{NewModelFittingError("diverged", nil), KindModelFitting},
		{NewPermissionError("forbidden"), KindPermission},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, KindOf(tc.err))
	}
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("matrix is singular")
	err := NewModelFittingError("fit failed", cause)

	assert.ErrorIs(t, err, cause)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindModelFitting, de.Kind)
}

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("context: %w", NewNotFoundError("no forecast"))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestErrorIsMatchesByKind(t *testing.T) {
	assert.ErrorIs(t, NewValidationError("a"), &Error{Kind: KindValidation})
	assert.NotErrorIs(t, NewValidationError("a"), &Error{Kind: KindNotFound})
}
