// Package gqlerr defines the error taxonomy shared across the query engine.
// Each kind carries its own propagation and visibility rules; see the
// Aborts/UserVisible/Fatal methods below for how callers should react.
package gqlerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the engine's error categories.
type Kind string

const (
	KindParse          Kind = "ParseError"
	KindValidation     Kind = "ValidationError"
	KindMissingVar     Kind = "MissingVariable"
	KindUnknownLink    Kind = "UnknownLink"
	KindFilterType     Kind = "FilterTypeError"
	KindUserVisible    Kind = "UserVisibleError"
	KindConnFailed     Kind = "ConnectionFailed"
	KindExecFailed     Kind = "ExecutionFailed"
	KindSchemaRead     Kind = "SchemaReadError"
	KindObserverError  Kind = "ObserverError"
	KindCancelled      Kind = "Cancelled"
)

// Error is the concrete type carried through the pipeline. Message is always
// safe to show a caller; Detail carries operator-only diagnostic context
// (driver errors, parameter names) that must never reach a GraphQL response.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	cause   error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// UserVisible reports whether this error's message (not Detail) may be
// surfaced in a GraphQL response's errors array.
func (e *Error) UserVisible() bool {
	switch e.Kind {
	case KindParse, KindValidation, KindMissingVar, KindUnknownLink,
		KindFilterType, KindUserVisible:
		return true
	case KindConnFailed, KindExecFailed:
		return true // generic message only; Detail stays server-side
	default:
		return false
	}
}

// Aborts reports whether this error kind aborts the whole request (no
// partial data), as opposed to ObserverError which is caught and swallowed.
func (e *Error) Aborts() bool {
	return e.Kind != KindObserverError
}

// Fatal reports whether this error kind should terminate startup rather
// than a single request (only SchemaReadError today).
func (e *Error) Fatal() bool {
	return e.Kind == KindSchemaRead
}

func newErr(k Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), cause: cause}
}

func Parse(format string, args ...interface{}) *Error {
	return newErr(KindParse, nil, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newErr(KindValidation, nil, format, args...)
}

func MissingVariable(name string) *Error {
	return newErr(KindMissingVar, nil, "missing variable %q", name)
}

func UnknownLink(name string) *Error {
	return newErr(KindUnknownLink, nil, "unknown link %q", name)
}

func FilterType(format string, args ...interface{}) *Error {
	return newErr(KindFilterType, nil, format, args...)
}

func UserVisible(format string, args ...interface{}) *Error {
	return newErr(KindUserVisible, nil, format, args...)
}

func ConnectionFailed(cause error) *Error {
	e := newErr(KindConnFailed, cause, "could not connect to database")
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// ExecutionFailed wraps a driver error. stmt/params name the failing
// statement and its parameter names (never values) for operator diagnostics.
func ExecutionFailed(cause error, stmt string, paramNames []string) *Error {
	e := newErr(KindExecFailed, cause, "query execution failed")
	e.Detail = fmt.Sprintf("statement=%s params=%v cause=%v", stmt, paramNames, cause)
	return e
}

func SchemaRead(cause error, format string, args ...interface{}) *Error {
	e := newErr(KindSchemaRead, cause, format, args...)
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func Observer(cause error, name string) *Error {
	e := newErr(KindObserverError, cause, "observer %q failed", name)
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func Cancelled() *Error {
	return newErr(KindCancelled, nil, "request cancelled")
}

// As reports whether err (or any error it wraps) is a *Error, returning
// the first one errors.As finds in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err wraps a *Error of the given kind.
func Is(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}
