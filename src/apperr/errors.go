// Package apperr defines the error taxonomy shared by repositories, services and
// handlers. Every error that crosses a package boundary is an *Error carrying a Kind,
// so callers never have to inspect raw driver or crypto errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindToken        Kind = "token"
	KindDatabase     Kind = "database"
	KindInternal     Kind = "internal"
)

// Error is the typed error returned across component boundaries
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error without an underlying cause
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err unless it is already an *Error, in which case it is returned as is.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// WithCause always creates a new error of the given kind, even if err is already typed.
func WithCause(kind Kind, op, message string, err error) error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// Validation builds a validation error with per-field messages
func Validation(op string, fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: "invalid input",
		Fields:  fields,
	}
}

// Database wraps a persistence failure
func Database(op string, err error) error {
	return Wrap(KindDatabase, op, "database operation failed", err)
}

// NotFound reports a missing record
func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

// Conflict reports a duplicate unique key
func Conflict(op, message string) *Error {
	return New(KindConflict, op, message)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

// IsKind checks whether the first *Error in the chain has the provided kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// IsFault reports whether any *Error in the chain is a database or internal
// failure. A token error caused by a store outage is a fault, not a rejection.
func IsFault(err error) bool {
	for err != nil {
		var typed *Error
		if !errors.As(err, &typed) {
			return false
		}
		if typed.Kind == KindDatabase || typed.Kind == KindInternal {
			return true
		}
		err = typed.Cause
	}
	return false
}

// PublicMessage returns the message safe to show to a client. Database and internal
// failures never leak their cause.
func PublicMessage(err error) string {
	var typed *Error
	if !errors.As(err, &typed) || IsFault(err) {
		return "internal server error"
	}
	return typed.Message
}

// HTTPStatus maps an error kind to a response status
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindToken:
		if IsFault(err) {
			return http.StatusInternalServerError
		}
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
