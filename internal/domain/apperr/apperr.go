// Package apperr defines the error kinds shared by every domain package.
//
// Domain code returns either an *Error built with one of the constructors
// below, or its own typed error that implements Kinder. Transport layers call
// KindOf to pick a response status without knowing concrete error types.
package apperr

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies an error for callers.
type Kind int

const (
	// KindInternal is the zero value: backing-store failures and bugs.
	KindInternal Kind = iota
	// KindNotFound means the entity is absent or owned by another principal.
	KindNotFound
	// KindUnavailable means a product is hidden or the store plan lacks a feature.
	KindUnavailable
	// KindInsufficientStock means finite stock cannot cover the requested quantity.
	KindInsufficientStock
	// KindInvalidInput means malformed price, quantity, phone, slug and similar.
	KindInvalidInput
	// KindConflict means a uniqueness or concurrent-update violation.
	KindConflict
	// KindUnauthenticated means the caller could not be identified.
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Kinder is implemented by errors that carry a Kind.
type Kinder interface {
	Kind() Kind
}

// Error is a human-readable failure with a kind.
type Error struct {
	kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Kind implements Kinder.
func (e *Error) Kind() Kind { return e.kind }

// Is reports whether target is an *Error of the same kind and message, so
// package-level sentinels built with these constructors work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == e.kind && t.Message == e.Message
}

func newf(kind Kind, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{kind: kind, Message: msg}
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// Unavailable returns a KindUnavailable error.
func Unavailable(format string, args ...any) *Error { return newf(KindUnavailable, format, args...) }

// InvalidInput returns a KindInvalidInput error.
func InvalidInput(format string, args ...any) *Error { return newf(KindInvalidInput, format, args...) }

// Conflict returns a KindConflict error.
func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

// Unauthenticated returns a KindUnauthenticated error.
func Unauthenticated(format string, args ...any) *Error {
	return newf(KindUnauthenticated, format, args...)
}

// KindOf returns the kind of the first error in the chain that carries one,
// or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var k Kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// Message returns the message of the first kinded error in the chain. Errors
// without a kind are reported with a generic message so internal details do
// not leak to clients.
func Message(err error) string {
	var k Kinder
	if errors.As(err, &k) {
		if e, ok := k.(error); ok {
			return e.Error()
		}
	}
	return "internal server error"
}
