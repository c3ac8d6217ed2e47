package apperrors_test

import (
	"errors"
	"io/fs"
	"testing"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/stretchr/testify/assert"
)

func Test_ConstructionError_Unwrap(t *testing.T) {
	err := apperrors.NewConstructionError(apperrors.StageResolve, "crate.zip", fs.ErrNotExist)

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "resolve stage")
	assert.Contains(t, err.Error(), "crate.zip")

	var ce *apperrors.ConstructionError
	assert.True(t, errors.As(error(err), &ce))
}

func Test_ValidationError_Message(t *testing.T) {
	assert.Equal(t, "validation failed: name: required", apperrors.NewValidationError("name", "required").Error())
	assert.Equal(t, "validation failed: metadata: schema (2 issues)",
		apperrors.NewValidationError("metadata", "schema", "a", "b").Error())
}

func Test_ScriptError_Message(t *testing.T) {
	err := apperrors.NewScriptError("abcd", apperrors.PhaseCompile, "unexpected symbol")
	assert.Equal(t, "script abcd compile error: unexpected symbol", err.Error())
}
