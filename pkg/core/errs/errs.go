// Package errs implements the §7 error-kind taxonomy. Every error the core
// raises carries a Kind so callers can branch on it without string
// matching, while still composing with the standard errors.Is/As machinery.
package errs

import "fmt"

// Kind enumerates the error kinds §7 names.
type Kind string

const (
	InsufficientData   Kind = "insufficient_data"
	UndefinedFormula   Kind = "undefined_formula"
	UpstreamUnavailable Kind = "upstream_unavailable"
	StaleInputs        Kind = "stale_inputs"
	InvariantViolation Kind = "invariant_violation"
	TrainingUnstable   Kind = "training_unstable"
	DeadlineExceeded   Kind = "deadline_exceeded"
)

// Error is the core's error type. It always satisfies error, and Unwrap
// lets errors.Is/errors.As see through to a wrapped cause.
type Error struct {
	Kind    Kind
	Msg     string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds a bare *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error that wraps cause with %w semantics.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Wrapped: cause}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Wrapped
			continue
		}
		break
	}
	return false
}
