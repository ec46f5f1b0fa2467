// Package dcmerr defines the error kinds shared across the dcmspec pipeline.
//
// Every fatal condition in the pipeline is surfaced as a *dcmerr.Error
// carrying a Kind, so callers can branch on failure class with errors.As
// instead of matching error strings.
package dcmerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of pipeline failure.
type Kind string

const (
	MissingUrl       Kind = "missing_url"
	NetworkError     Kind = "network_error"
	IoError          Kind = "io_error"
	ParseError       Kind = "parse_error"
	TableNotFound    Kind = "table_not_found"
	BadMap           Kind = "bad_map"
	NoModules        Kind = "no_modules"
	DimseNotSelected Kind = "dimse_not_selected"
	InvalidMatchBy   Kind = "invalid_match_by"
	UnknownMethod    Kind = "unknown_method"
	CacheInvalid     Kind = "cache_invalid"
)

// Error wraps a Kind with the operation that raised it and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a *Error for the given kind and operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
