package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared across the API surface.
const (
	CodeValidation = "VALIDATION"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NewValidationError reports a malformed definition, naming the offending field.
func NewValidationError(field, reason string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    fmt.Sprintf("%s: %s", field, reason),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]string{"field": field},
	}
}

// NewNotFoundError reports a missing entity on CRUD operations.
func NewNotFoundError(entity string, id int64) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s %d not found", entity, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// AsAppError extracts an AppError from the chain, if present.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsValidation reports whether the error carries the VALIDATION code.
func IsValidation(err error) bool {
	app, ok := AsAppError(err)
	return ok && app.Code == CodeValidation
}

// IsNotFound reports whether the error carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	app, ok := AsAppError(err)
	return ok && app.Code == CodeNotFound
}
