// Package errs defines the error kinds returned by the analytics and sizing
// packages. Every kind is recoverable by the caller; match them with
// errors.Is against the sentinels or errors.As against the concrete types.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrInvalidRisk     = errors.New("invalid risk input")
	ErrUnsupportedPair = errors.New("unsupported currency pair")
	ErrConversion      = errors.New("currency conversion failed")
	ErrUndefined       = errors.New("computation undefined")
	ErrNotFound        = errors.New("not found")
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation is shorthand for &ValidationError{Field: field, Reason: ...}.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidRiskInputError reports a zero or negative balance, risk percentage
// or risk-per-unit.
type InvalidRiskInputError struct {
	Field  string
	Reason string
}

func (e *InvalidRiskInputError) Error() string {
	return fmt.Sprintf("invalid risk input %s: %s", e.Field, e.Reason)
}

func (e *InvalidRiskInputError) Unwrap() error { return ErrInvalidRisk }

func InvalidRisk(field, format string, args ...any) error {
	return &InvalidRiskInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedPairError is returned when a currency pair cannot be resolved
// against the injected converter.
type UnsupportedPairError struct {
	Pair string
	Err  error
}

func (e *UnsupportedPairError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported currency pair %s: %v", e.Pair, e.Err)
	}
	return fmt.Sprintf("unsupported currency pair %s", e.Pair)
}

func (e *UnsupportedPairError) Is(target error) bool { return target == ErrUnsupportedPair }

func (e *UnsupportedPairError) Unwrap() error { return e.Err }

// ConversionError is returned when an amount cannot be converted between two
// currencies.
type ConversionError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("convert %s -> %s: %v", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("convert %s -> %s: no rate", e.From, e.To)
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

func (e *ConversionError) Unwrap() error { return e.Err }

// ComputationUndefinedError marks a statistic that has no defined value for
// the given input. Conventions that resolve such cases (win rate of an empty
// ledger, 0/0 profit factor) never produce this error.
type ComputationUndefinedError struct {
	Quantity string
	Reason   string
}

func (e *ComputationUndefinedError) Error() string {
	return fmt.Sprintf("%s undefined: %s", e.Quantity, e.Reason)
}

func (e *ComputationUndefinedError) Unwrap() error { return ErrUndefined }

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
