// Package errors provides error handling for movegen.
//
// This package re-exports github.com/cockroachdb/errors and adds the sentinel
// errors that make up the generator's error taxonomy. Wrap a sentinel with
// Mark or Wrap so that callers can classify failures with Is after details
// and hints have been attached:
//
//	err := errors.Newf("type parameter %d is not bound", idx)
//	err = errors.Mark(err, errors.ErrUnboundParameter)
//	err = errors.WithDetailf(err, "type: %s", name)
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
	CombineErrors  = crdb.CombineErrors
)

// AssertionFailedf reports a broken internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors for the generator's error taxonomy.
// Use these with Is(); attach them to concrete errors with Mark().
var (
	// ErrMalformedInput indicates the type description is structurally invalid
	ErrMalformedInput = New("malformed input")

	// ErrDanglingReference indicates a reference to a module or type that does not exist
	ErrDanglingReference = New("dangling reference")

	// ErrArityMismatch indicates a use site supplies the wrong number of type arguments
	ErrArityMismatch = New("generic arity mismatch")

	// ErrUnboundParameter indicates a type parameter with no binding in the current context
	ErrUnboundParameter = New("unbound type parameter")

	// ErrUnguardedCycle indicates a type cycle that would require infinite expansion
	ErrUnguardedCycle = New("unguarded type cycle")

	// ErrAlreadyFinalized indicates an output unit was finalized twice
	ErrAlreadyFinalized = New("output unit already finalized")
)

// IsInputError reports whether err stems from a fault in the type description
// rather than from I/O or an internal bug.
func IsInputError(err error) bool {
	return err != nil && IsAny(err,
		ErrMalformedInput,
		ErrDanglingReference,
		ErrArityMismatch,
		ErrUnboundParameter,
		ErrUnguardedCycle,
	)
}
