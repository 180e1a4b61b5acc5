package dice

import (
	"errors"
	"fmt"
)

// Evaluator parses and evaluates roll strings such as "3d6+d8-2".
//
// An Evaluator is immutable after construction and safe for concurrent use
// provided its Source is.
type Evaluator struct {
	src       Source
	maxDice   int
	maxLength int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxDice rejects any primitive roll whose die count exceeds n.
// n <= 0 disables the limit.
func WithMaxDice(n int) Option {
	return func(e *Evaluator) { e.maxDice = n }
}

// WithMaxLength rejects roll strings longer than n bytes.
// n <= 0 disables the limit.
func WithMaxLength(n int) Option {
	return func(e *Evaluator) { e.maxLength = n }
}

// NewEvaluator creates an Evaluator drawing randomness from src.
//
// Precondition: src must be non-nil.
func NewEvaluator(src Source, opts ...Option) *Evaluator {
	e := &Evaluator{src: src}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate parses and evaluates rollString.
//
// Postcondition: Returns a RollResult whose Rolls is non-nil, or one of
// *InvalidRollStringError / *DivisionByZeroError. Errors from nested operands
// are returned unmodified, so Input names the innermost offending substring.
func (e *Evaluator) Evaluate(rollString string) (RollResult, error) {
	if e.maxLength > 0 && len(rollString) > e.maxLength {
		return RollResult{}, invalid(rollString, fmt.Sprintf("longer than %d bytes", e.maxLength))
	}
	return e.eval(rollString)
}

func (e *Evaluator) eval(s string) (RollResult, error) {
	sh, err := classify(s)
	if err != nil {
		return RollResult{}, err
	}

	switch sh.kind {
	case shapePrimitive:
		if e.maxDice > 0 && sh.token.Count > e.maxDice {
			return RollResult{}, invalid(s, fmt.Sprintf("more than %d dice", e.maxDice))
		}
		return Roll(sh.token, e.src)

	case shapeLiteral:
		return RollResult{
			Expression: s,
			Total:      sh.value,
			Rolls:      map[string][]RollGroup{},
		}, nil

	case shapeCompound:
		left, err := e.eval(s[:sh.split])
		if err != nil {
			return RollResult{}, err
		}
		right, err := e.eval(s[sh.split+1:])
		if err != nil {
			return RollResult{}, err
		}
		result, err := Combine(left, right, sh.op)
		if err != nil {
			var dz *DivisionByZeroError
			if errors.As(err, &dz) {
				dz.Expression = s
			}
			return RollResult{}, err
		}
		result.Expression = s
		return result, nil
	}

	return RollResult{}, invalid(s, "unclassified")
}

// Evaluate parses and evaluates rollString with an unguarded Evaluator over src.
//
// Precondition: src must be non-nil.
func Evaluate(rollString string, src Source) (RollResult, error) {
	return NewEvaluator(src).Evaluate(rollString)
}
