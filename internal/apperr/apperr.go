// Package apperr defines the typed error taxonomy the ingress adapter maps
// to HTTP responses: Validation, NotFound, BusinessRule, Integrity, System.
package apperr

import (
	"errors"
	"fmt"
)

// Error is a domain error carrying an HTTP status and a stable code string.
type Error struct {
	code    string
	status  int
	message string
	details map[string]any
}

func (e *Error) Error() string { return e.message }

// Code returns the stable machine-readable error code (e.g. VALIDATION_ERROR).
func (e *Error) Code() string { return e.code }

// Status returns the HTTP status this error maps to.
func (e *Error) Status() int { return e.status }

// Details returns additional structured context, or nil.
func (e *Error) Details() map[string]any { return e.details }

func newError(code string, status int, message string, details map[string]any) *Error {
	return &Error{code: code, status: status, message: message, details: details}
}

// Validation builds a 422 VALIDATION_ERROR.
func Validation(message string, details map[string]any) *Error {
	return newError("VALIDATION_ERROR", 422, message, details)
}

// NotFound builds a 404 RESOURCE_NOT_FOUND.
func NotFound(message string, details map[string]any) *Error {
	return newError("RESOURCE_NOT_FOUND", 404, message, details)
}

// RestaurantNotFound builds a 404 RESTAURANT_NOT_FOUND for the given id.
func RestaurantNotFound(restaurantID string) *Error {
	return newError("RESTAURANT_NOT_FOUND", 404,
		fmt.Sprintf("restaurant not found: %s", restaurantID),
		map[string]any{"restaurant_id": restaurantID},
	)
}

// BusinessRule builds a 409 BUSINESS_RULE_VIOLATION.
func BusinessRule(code, message string, details map[string]any) *Error {
	if code == "" {
		code = "BUSINESS_RULE_VIOLATION"
	}
	return newError(code, 409, message, details)
}

// InsufficientBalance builds a 409 PAYOUT_INSUFFICIENT_BALANCE.
func InsufficientBalance(restaurantID string, available, required int64) *Error {
	return newError("PAYOUT_INSUFFICIENT_BALANCE", 409,
		"insufficient balance for payout",
		map[string]any{
			"restaurant_id":   restaurantID,
			"available_cents": available,
			"required_cents":  required,
		},
	)
}

// PendingPayout builds a 409 PAYOUT_ALREADY_PENDING.
func PendingPayout(restaurantID string) *Error {
	return newError("PAYOUT_ALREADY_PENDING", 409,
		"cannot create payout while another is pending",
		map[string]any{"restaurant_id": restaurantID},
	)
}

// InvalidEventType builds a 422 EVENT_INVALID_TYPE.
func InvalidEventType(eventType string) *Error {
	return newError("EVENT_INVALID_TYPE", 422,
		fmt.Sprintf("invalid event type: %s", eventType),
		map[string]any{"event_type": eventType},
	)
}

// Integrity builds a 409 INTEGRITY_ERROR.
func Integrity(message string) *Error {
	return newError("INTEGRITY_ERROR", 409, message, nil)
}

// System builds a 500 SYSTEM_ERROR (or DATABASE_ERROR when operation is set).
func System(message, operation string) *Error {
	code := "SYSTEM_ERROR"
	var details map[string]any
	if operation != "" {
		code = "DATABASE_ERROR"
		details = map[string]any{"operation": operation}
	}
	return newError(code, 500, message, details)
}

// As extracts an *Error from err or its wrap chain, reporting ok=false for
// plain errors.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
