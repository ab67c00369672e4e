package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "test error message",
	}

	assert.Equal(t, "test error message", err.Error())
}

func TestValidationError_ErrorWithField(t *testing.T) {
	err := &ValidationError{
		Field:   "athlete_id",
		Message: "must not be empty",
	}

	assert.Equal(t, "athlete_id: must not be empty", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation failed")

	assert.Error(t, err)
	assert.Equal(t, "validation failed", err.Error())

	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "validation failed", validationErr.Message)
	assert.Empty(t, validationErr.Field)
}

func TestNewFieldValidationError(t *testing.T) {
	err := NewFieldValidationError("limit", "must be positive")

	assert.Error(t, err)
	assert.Equal(t, "limit: must be positive", err.Error())

	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "limit", validationErr.Field)
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("window of %d days is too large", 500)

	assert.Error(t, err)
	assert.Equal(t, "window of 500 days is too large", err.Error())
}
