// Package domainerrors provides coded errors for service boundaries. Services
// return these so handlers can map failures to transport responses without
// string matching, and so tests can assert on the failure kind.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of failure. Every public operation of the core
// returns exactly one of these on rejection.
type Code string

const (
	// CodeUnauthorized: caller lacks the required role or controller relationship.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound: referenced id has no record (includes unknown pools).
	CodeNotFound Code = "not_found"
	// CodeConflict: uniqueness violation (already registered, duplicate proposal).
	CodeConflict Code = "conflict"
	// CodeExpired: temporal precondition failed (proposal deadline passed).
	CodeExpired Code = "expired"
	// CodeSenateExpired: senate term lapsed; only re-election may proceed.
	CodeSenateExpired Code = "senate_expired"
	// CodeExceedsMax: value outside its configured bound.
	CodeExceedsMax Code = "exceeds_max"
	// CodePriceBound: reported price delta outside the period band.
	CodePriceBound Code = "price_bound_exceeded"
	// CodeStaleReport: a report for the current period was already accepted.
	CodeStaleReport Code = "stale_report"
	// CodeBadRequest: malformed or missing input.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput: input parsed but failed domain validation.
	CodeInvalidInput Code = "invalid_input"
	// CodeInternal: unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-facing message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. If err already
// carries a code it is preserved as the cause, not overwritten in place.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf extracts the outermost code, or CodeInternal when err is uncoded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its transport status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeStaleReport:
		return http.StatusConflict
	case CodeExpired, CodeSenateExpired:
		return http.StatusGone
	case CodeExceedsMax, CodePriceBound, CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
