package dice

import (
	"errors"
	"fmt"
)

// ErrInvalidRollString is the sentinel matched by every InvalidRollStringError.
var ErrInvalidRollString = errors.New("invalid roll string")

// ErrDivisionByZero is the sentinel matched by every DivisionByZeroError.
var ErrDivisionByZero = errors.New("division by zero")

// InvalidRollStringError reports a (sub)string that is neither a primitive
// roll, a plain integer, nor a compound expression.
type InvalidRollStringError struct {
	// Input is the offending substring. It may be empty when a split leaves
	// nothing on one side of an operator.
	Input string
	// Reason is an optional detail for logs; it is not part of Error().
	Reason string
}

func (e *InvalidRollStringError) Error() string {
	return fmt.Sprintf("Invalid roll string: %s", e.Input)
}

func (e *InvalidRollStringError) Unwrap() error { return ErrInvalidRollString }

// DivisionByZeroError reports a "/" whose right operand totalled zero.
type DivisionByZeroError struct {
	Expression string
}

func (e *DivisionByZeroError) Error() string {
	if e.Expression == "" {
		return "Division by zero"
	}
	return fmt.Sprintf("Division by zero in roll string: %s", e.Expression)
}

func (e *DivisionByZeroError) Unwrap() error { return ErrDivisionByZero }

// IsValidationError reports whether err was caused by the caller's input and
// should be surfaced as a bad-request condition.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRollString) || errors.Is(err, ErrDivisionByZero)
}

func invalid(input, reason string) error {
	return &InvalidRollStringError{Input: input, Reason: reason}
}
