// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidLocation = "INVALID_LOCATION"

	// Business rule violations (422)
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeNoFormula              = "NO_FORMULA"
	CodeSelfReferencingFormula = "SELF_REFERENCING_FORMULA"
	CodeNoLocationAvailable    = "NO_LOCATION_AVAILABLE"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound         = "NOT_FOUND"
	CodeUnknownReference = "UNKNOWN_REFERENCE"

	// Conflict (409)
	CodeConflict          = "CONFLICT"
	CodeDuplicateDocument = "DUPLICATE_DOCUMENT"
	CodeLockTimeout       = "LOCK_TIMEOUT"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (offending refs, shortages, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// StockShortage describes one short document line. Quantities are
// decimal strings so the payload never carries binary floats.
type StockShortage struct {
	ItemCode  string `json:"item_code"`
	Requested string `json:"requested"`
	Available string `json:"available"`
	Resulting string `json:"resulting"`
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewUnknownReferences reports every unresolved reference of one entity
// kind in a single error, so the caller can fix the whole batch at once.
func NewUnknownReferences(entity string, refs []string) *AppError {
	return &AppError{
		Code:       CodeUnknownReference,
		Message:    fmt.Sprintf("unknown %s: %s", entity, strings.Join(refs, ", ")),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "refs": refs},
	}
}

// NewInsufficientStock reports all short lines of a document at once.
func NewInsufficientStock(shortages []StockShortage) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"shortages": shortages},
	}
}

// NewDuplicateDocument creates a duplicate document number error (409)
func NewDuplicateDocument(docType, number string) *AppError {
	return &AppError{
		Code:       CodeDuplicateDocument,
		Message:    fmt.Sprintf("%s %s already exists", docType, number),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"document_type": docType, "number": number},
	}
}

// NewNoFormula is returned when a production order references an output
// item that has no formula.
func NewNoFormula(itemCode string) *AppError {
	return &AppError{
		Code:       CodeNoFormula,
		Message:    fmt.Sprintf("no production formula for item %s", itemCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"item_code": itemCode},
	}
}

// NewSelfReferencingFormula rejects a formula whose output appears among
// its own inputs.
func NewSelfReferencingFormula(itemCode string) *AppError {
	return &AppError{
		Code:       CodeSelfReferencingFormula,
		Message:    "an item cannot be an input of its own formula",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"item_code": itemCode},
	}
}

// NewNoLocationAvailable is returned when a warehouse has no location
// the resolver can fall back to.
func NewNoLocationAvailable(warehouse string) *AppError {
	return &AppError{
		Code:       CodeNoLocationAvailable,
		Message:    fmt.Sprintf("warehouse %s has no available location", warehouse),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"warehouse": warehouse},
	}
}

// NewInvalidLocation rejects an explicit location that is missing,
// inactive, or belongs to another warehouse.
func NewInvalidLocation(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidLocation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewLockTimeout signals that row locks could not be acquired in time.
// The operation is safe to retry.
func NewLockTimeout(err error) *AppError {
	return &AppError{
		Code:       CodeLockTimeout,
		Message:    "could not acquire stock locks, retry the operation",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"retryable": true},
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsRetryable reports whether the operation may be retried as-is.
func IsRetryable(err error) bool {
	return HasCode(err, CodeLockTimeout)
}
