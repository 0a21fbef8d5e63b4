// Package apperror defines the domain error taxonomy shared by the service,
// auth and GraphQL layers.
//
// Every error a resolver can report to a client maps to one of five codes.
// The service layer returns these as ordinary Go errors; the GraphQL layer
// decides whether they become payload entries (mutations) or GraphQL errors
// (queries). Anything that is not an *AppError collapses to INTERNAL_ERROR.
package apperror

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error code sent to clients.
type Code string

const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeNotFound     Code = "NOT_FOUND"
	CodeForbidden    Code = "FORBIDDEN"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// InternalMessage is the only message clients ever see for unexpected
// failures. The real cause is logged server-side.
const InternalMessage = "Something went wrong"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable, safe to show to clients
	Field   string // optional: dotted path of the offending input field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Code maps the sentinel to its client-facing code.
func (e *AppError) Code() Code {
	switch e.Err {
	case ErrNotFound:
		return CodeNotFound
	case ErrValidation:
		return CodeValidation
	case ErrForbidden:
		return CodeForbidden
	case ErrUnauthorized:
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundField is NotFound with a client-facing message attached to an
// input field, e.g. ("id", "Loggable event not found").
func NotFoundField(field, message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
		Field:   field,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller does not own the record.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "Not authenticated",
	}
}

// ValidationErrors is a list of field-level failures produced by a single
// validation pass. errors.Is(v, ErrValidation) reports true when the list is
// non-empty.
type ValidationErrors []*AppError

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("%s: %s", v[0].Field, v[0].Message)
	default:
		return fmt.Sprintf("%s: %s (and %d more)", v[0].Field, v[0].Message, len(v)-1)
	}
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// CodeOf returns the client-facing code for any error.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeInternal
}
