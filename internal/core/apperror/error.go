// Package apperror provides structured error handling for the engine.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. The engine's own taxonomy first, generic platform codes after.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Caller input (400)
	CodeValidation = "VALIDATION_ERROR"

	// Engine errors
	CodeInvalidTransition   = "INVALID_TRANSITION"   // intent illegal from current state (409)
	CodeImbalancedLedger    = "IMBALANCED_LEDGER"    // journal group does not balance (422)
	CodeOverReceipt         = "OVER_RECEIPT"         // strict-mode receipt beyond ordered (422)
	CodeDuplicatePosting    = "DUPLICATE_POSTING"    // same (document, attempt) posted twice (409)
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT" // lock wait exceeded; retryable (409)
	CodeCurrencyNotFound    = "CURRENCY_NOT_FOUND"   // no active rate configured (422)
	CodeInvalidQuantity     = "INVALID_QUANTITY"     // malformed numeric input (422)
	CodeTenantScopeMissing  = "TENANT_SCOPE_MISSING" // operation invoked without a scope (401)

	// Business rule violations (422)
	CodeBusinessRule = "BUSINESS_RULE_VIOLATION"
	CodePolicyRule   = "POLICY_RULE_VIOLATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeIdempotency            = "IDEMPOTENCY_CONFLICT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the platform.
// It implements the error interface and carries structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidTransition is returned when an intent is illegal from the document's
// current status. No side effects have occurred.
func NewInvalidTransition(kind, from, intent string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot %s a %s document in status %s", intent, kind, from),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"kind": kind, "status": from, "intent": intent},
	}
}

// NewImbalancedLedger is fatal to the posting operation: the computed journal
// lines do not balance, which signals an upstream computation bug.
func NewImbalancedLedger(reference string, debit, credit string) *AppError {
	return &AppError{
		Code:       CodeImbalancedLedger,
		Message:    "journal lines do not balance",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"reference": reference, "debit": debit, "credit": credit},
	}
}

// NewOverReceipt is returned in strict mode when a requested delta exceeds the
// line's remaining quantity. Default policy caps instead.
func NewOverReceipt(lineID any, requested, remaining string) *AppError {
	return &AppError{
		Code:       CodeOverReceipt,
		Message:    "requested quantity exceeds remaining ordered quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"line_id": lineID, "requested": requested, "remaining": remaining},
	}
}

// NewDuplicatePosting is returned when a (document, attempt) pair already has a
// posted entry group.
func NewDuplicatePosting(documentID any, attempt int) *AppError {
	return &AppError{
		Code:       CodeDuplicatePosting,
		Message:    "entry group already posted for this document attempt",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"document_id": documentID, "attempt": attempt},
	}
}

// NewConcurrencyConflict is returned when a lock wait times out. Retryable by
// the caller with backoff; the engine itself never retries.
func NewConcurrencyConflict(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrencyConflict,
		Message:    "operation timed out waiting for a concurrent transaction",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewCurrencyNotFound is returned when no active rate exists for the currency
// and it is not the tenant base currency.
func NewCurrencyNotFound(currency string, asOf string) *AppError {
	return &AppError{
		Code:       CodeCurrencyNotFound,
		Message:    fmt.Sprintf("no active exchange rate for currency %s", currency),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"currency": currency, "as_of": asOf},
	}
}

// NewInvalidQuantity is returned when a numeric input fails strict parsing.
func NewInvalidQuantity(raw string, cause error) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    fmt.Sprintf("malformed quantity %q", raw),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"value": raw},
		Err:        cause,
	}
}

// NewTenantScopeMissing is returned when an operation reaches the engine
// without a tenant scope on the context.
func NewTenantScopeMissing() *AppError {
	return &AppError{
		Code:       CodeTenantScopeMissing,
		Message:    "no tenant scope on request context",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified by another user, refresh and retry",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error, hiding details from the client.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewIdempotencyConflict is returned when an operation with the same key is
// already in progress or completed.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused
// for a different request (different user/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helpers ---

// IsAppError checks whether err is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts an AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err carries the given application code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsRetryable reports whether the caller may retry the operation with backoff.
// Only lock-wait and optimistic-version conflicts qualify.
func IsRetryable(err error) bool {
	return IsCode(err, CodeConcurrencyConflict) || IsCode(err, CodeConcurrentModification)
}
