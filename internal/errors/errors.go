package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

// AuthError is returned by the session store when login or restore fails.
// The session is left empty whenever one is produced.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

func NewAuthError(message string, cause error) *AuthError {
	return &AuthError{Message: message, Cause: cause}
}

func IsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

type AuthorizationDeniedError struct {
	Path string
}

func (e *AuthorizationDeniedError) Error() string {
	return fmt.Sprintf("access to %s denied", e.Path)
}

func NewAuthorizationDeniedError(path string) *AuthorizationDeniedError {
	return &AuthorizationDeniedError{Path: path}
}

func IsAuthorizationDeniedError(err error) (*AuthorizationDeniedError, bool) {
	var ade *AuthorizationDeniedError
	if stderrors.As(err, &ade) {
		return ade, true
	}
	return nil, false
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	var ite *InvalidTransitionError
	if stderrors.As(err, &ite) {
		return ite, true
	}
	return nil, false
}

// APIError carries a non-2xx response from the upstream shop API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func IsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
