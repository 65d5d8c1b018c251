// Package apperr provides the structured error type shared by every core
// component: repository, index registry, search service, and snapshot
// manager. Every classified failure the core reports is an *apperr.Error or
// wraps one, so callers can branch on Kind with errors.As instead of string
// matching. The snapshot manager's lock and file I/O failures are returned
// as plain wrapped errors with no Kind.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-checkable error classification.
type Kind string

const (
	// NotFound indicates a referenced library/document/chunk/snapshot does
	// not exist.
	NotFound Kind = "NOT_FOUND"
	// AlreadyExists indicates a name collision for a library or snapshot.
	AlreadyExists Kind = "ALREADY_EXISTS"
	// DimensionMismatch indicates a chunk embedding length disagrees with
	// the library's established dimension, or a query vector's length
	// disagrees with the index dimension.
	DimensionMismatch Kind = "DIMENSION_MISMATCH"
	// InvalidVector indicates a zero-norm vector was used under cosine.
	InvalidVector Kind = "INVALID_VECTOR"
	// UnsupportedMetric indicates the (algorithm, metric) pairing is not
	// supported.
	UnsupportedMetric Kind = "UNSUPPORTED_METRIC"
	// InvalidArgument indicates a malformed request: k <= 0, an empty
	// name, or a malformed metadata filter.
	InvalidArgument Kind = "INVALID_ARGUMENT"
	// SnapshotCorrupt indicates a snapshot file failed to parse or
	// violated an invariant on load.
	SnapshotCorrupt Kind = "SNAPSHOT_CORRUPT"
	// EmbeddingUnavailable indicates the embedding credential is missing
	// or the upstream call failed after exhausting retries.
	EmbeddingUnavailable Kind = "EMBEDDING_UNAVAILABLE"
	// Internal indicates an invariant violation that should not occur.
	Internal Kind = "INTERNAL"
)

// code maps each Kind to the stable machine code surfaced to API clients.
var code = map[Kind]string{
	NotFound:             "ERR_NOT_FOUND",
	AlreadyExists:        "ERR_ALREADY_EXISTS",
	DimensionMismatch:    "ERR_DIMENSION_MISMATCH",
	InvalidVector:        "ERR_INVALID_VECTOR",
	UnsupportedMetric:    "ERR_UNSUPPORTED_METRIC",
	InvalidArgument:      "ERR_INVALID_ARGUMENT",
	SnapshotCorrupt:      "ERR_SNAPSHOT_CORRUPT",
	EmbeddingUnavailable: "ERR_EMBEDDING_UNAVAILABLE",
	Internal:             "ERR_INTERNAL",
}

// Error is the structured error type returned by the core. It carries a
// stable Kind/Code pair plus a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code(), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code(), e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/errors.As to see
// through to it.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, apperr.New(apperr.NotFound, "")) works as expected.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Code returns the stable machine code for this error's Kind.
func (e *Error) Code() string {
	if c, ok := code[e.Kind]; ok {
		return c
	}
	return code[Internal]
}

// New creates an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf creates an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, and
// reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
