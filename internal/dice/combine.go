package dice

import "fmt"

// Combine applies op to the totals of left and right and merges their roll
// histories into a new mapping.
//
// Precondition: op is one of OpAdd, OpSub, OpMul, OpDiv.
// Postcondition: for every key, result.Rolls[key] lists left's groups then
// right's groups, each in their original order. Neither input is modified
// and the result shares no slices with them.
// Division floors toward negative infinity; a zero divisor returns
// *DivisionByZeroError.
func Combine(left, right RollResult, op Operator) (RollResult, error) {
	total, err := apply(left.Total, right.Total, op)
	if err != nil {
		return RollResult{}, err
	}

	rolls := make(map[string][]RollGroup, len(left.Rolls)+len(right.Rolls))
	for _, src := range []map[string][]RollGroup{left.Rolls, right.Rolls} {
		for key, groups := range src {
			for _, g := range groups {
				rolls[key] = append(rolls[key], append(RollGroup{}, g...))
			}
		}
	}

	expr := ""
	if left.Expression != "" || right.Expression != "" {
		expr = left.Expression + op.String() + right.Expression
	}
	return RollResult{Expression: expr, Total: total, Rolls: rolls}, nil
}

func apply(a, b int, op Operator) (int, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, &DivisionByZeroError{}
		}
		return floorDiv(a, b), nil
	default:
		return 0, fmt.Errorf("dice: unknown operator %q", byte(op))
	}
}

// floorDiv divides a by b rounding toward negative infinity.
//
// Precondition: b != 0.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
