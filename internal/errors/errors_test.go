package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("order not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "order not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestValidationError_Creation(t *testing.T) {
	details := []ValidationDetail{
		{Field: "hours", Message: "must be non-negative"},
		{Field: "rate", Message: "must be non-negative"},
	}

	err := NewValidationError("validation failed", details...)

	assert.Equal(t, "validation failed", err.Error())
	assert.Len(t, err.Details, 2)
}

func TestValidationError_Wrapped(t *testing.T) {
	err := fmt.Errorf("computing service cost: %w", NewValidationError("negative hours"))

	ve, ok := IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "negative hours", ve.Message)
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "underlying error")
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestAuthError_KeepsCause(t *testing.T) {
	cause := NewAPIError(401, "bad credentials")
	err := NewAuthError("login failed", cause)

	ae, ok := IsAuthError(err)
	assert.True(t, ok)
	assert.Equal(t, "login failed", ae.Error())

	apiErr, ok := IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, 401, apiErr.Status)
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := NewInvalidTransitionError("completed", "in_progress")

	ite, ok := IsInvalidTransitionError(err)
	assert.True(t, ok)
	assert.Equal(t, "completed", ite.From)
	assert.Equal(t, "invalid order status transition from completed to in_progress", err.Error())
}

func TestAuthorizationDeniedError_Message(t *testing.T) {
	err := NewAuthorizationDeniedError("/employees")

	_, ok := IsAuthorizationDeniedError(err)
	assert.True(t, ok)
	assert.Equal(t, "access to /employees denied", err.Error())
}
