package ir

import (
	"errors"
	"fmt"
)

// Error represents a local evaluation failure.
//
// Every failure in this domain is a caller or data error. None of them
// are transient, so there is nothing to retry: errors propagate
// synchronously to the immediate caller.
//
// Error includes structured fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Column names the column involved, if any.
	Column string

	// Details contains additional context.
	Details map[string]string
}

// Code categorizes evaluation errors.
type Code string

const (
	// ErrCodeInvalidOperator indicates an operator outside the recognized set.
	ErrCodeInvalidOperator Code = "INVALID_OPERATOR"

	// ErrCodeUnknownColumn indicates the column is absent from the schema.
	ErrCodeUnknownColumn Code = "UNKNOWN_COLUMN"

	// ErrCodeTypeMismatch indicates an operand that cannot be compared to the
	// column kind, such as an ordering operator on a categorical column.
	ErrCodeTypeMismatch Code = "TYPE_MISMATCH"

	// ErrCodeEmptyDenominator indicates a marginal probability over a column
	// with no non-missing rows.
	ErrCodeEmptyDenominator Code = "EMPTY_DENOMINATOR"

	// ErrCodeInsufficientConditions indicates a condition list with fewer
	// than two predicates.
	ErrCodeInsufficientConditions Code = "INSUFFICIENT_CONDITIONS"

	// ErrCodeDivisionByZero indicates a Bayesian inversion whose evidence
	// probability is exactly zero.
	ErrCodeDivisionByZero Code = "DIVISION_BY_ZERO"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s (column=%s)", e.Code, e.Message, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode returns true if err is (or wraps) an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the *Error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NewInvalidOperatorError creates an Error for an unrecognized operator.
func NewInvalidOperatorError(op string) *Error {
	return &Error{
		Code:    ErrCodeInvalidOperator,
		Message: fmt.Sprintf("invalid operator %q: use one of geq, g, eq, l, leq, in_range", op),
		Details: map[string]string{"operator": op},
	}
}

// NewUnknownColumnError creates an Error for a column absent from the schema.
func NewUnknownColumnError(column string) *Error {
	return &Error{
		Code:    ErrCodeUnknownColumn,
		Message: "column not found in dataset",
		Column:  column,
	}
}

// NewTypeMismatchError creates an Error for an operand the column cannot be compared to.
func NewTypeMismatchError(column, message string) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Message: message,
		Column:  column,
	}
}

// NewEmptyDenominatorError creates an Error for a column with no eligible rows.
func NewEmptyDenominatorError(column string) *Error {
	return &Error{
		Code:    ErrCodeEmptyDenominator,
		Message: "no non-missing rows to divide by",
		Column:  column,
	}
}

// NewInsufficientConditionsError creates an Error for a short condition list.
func NewInsufficientConditionsError(got int) *Error {
	return &Error{
		Code:    ErrCodeInsufficientConditions,
		Message: fmt.Sprintf("need an event and at least one condition, got %d predicate(s)", got),
		Details: map[string]string{"predicates": fmt.Sprintf("%d", got)},
	}
}

// NewDivisionByZeroError creates an Error for a zero evidence probability.
func NewDivisionByZeroError(evidence string) *Error {
	return &Error{
		Code:    ErrCodeDivisionByZero,
		Message: fmt.Sprintf("evidence %s never occurs", evidence),
		Details: map[string]string{"evidence": evidence},
	}
}
