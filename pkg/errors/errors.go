package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error kinds. Every AppError wraps exactly one of them so callers
// can branch with errors.Is without inspecting codes.
var (
	ErrEntityNotFound   = errors.New("entity not found")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")
	ErrInternal         = errors.New("internal server error")
	ErrValidation       = errors.New("validation error")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// EntityNotFound reports a missing (or soft-deleted) entity identified by id.
func EntityNotFound(entity string, id any) *AppError {
	return &AppError{
		Err:        ErrEntityNotFound,
		Code:       "ENTITY_NOT_FOUND",
		Message:    fmt.Sprintf("%s with id %v not found", entity, id),
		StatusCode: http.StatusNotFound,
		Details:    map[string]string{"entity": entity, "id": fmt.Sprint(id)},
	}
}

// InvalidProduct reports a product or store product rejected by a data
// constraint: duplicate or retired UPC, unknown product, bad references.
func InvalidProduct(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidProduct,
		Code:       "INVALID_PRODUCT",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// InvalidParameter reports malformed caller input for a single field.
func InvalidParameter(field, message string) *AppError {
	return &AppError{
		Err:        ErrInvalidParameter,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid %s: %s", field, message),
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{field: message},
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrEntityNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join combines errors, mirroring the standard library.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
