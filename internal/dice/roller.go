package dice

import "fmt"

// MaxDieCount is the largest die count a single roll token may request.
// Larger counts are rejected before any allocation.
const MaxDieCount = 1_000_000

// RollDice rolls count dice of the given number of sides using src.
//
// Precondition: 0 <= count <= MaxDieCount; sides >= 1; src must be non-nil.
// Postcondition: len(result) == count and every element is in [1, sides].
// count == 0 yields an empty, non-nil slice.
func RollDice(count, sides int, src Source) ([]int, error) {
	if count < 0 || count > MaxDieCount {
		return nil, fmt.Errorf("dice: invalid die count %d: must be in [0, %d]", count, MaxDieCount)
	}
	if sides < 1 {
		return nil, fmt.Errorf("dice: invalid die sides %d: must be >= 1", sides)
	}
	rolled := make([]int, count)
	for i := range rolled {
		rolled[i] = src.Intn(sides) + 1
	}
	return rolled, nil
}

// Roll rolls a parsed primitive token using src and returns its result.
//
// Precondition: tok must come from ParseToken; src must be non-nil.
// Postcondition: result.Total == sum(outcomes); result.Rolls == {tok.Raw: [outcomes]}.
func Roll(tok Token, src Source) (RollResult, error) {
	outcomes, err := RollDice(tok.Count, tok.Sides, src)
	if err != nil {
		return RollResult{}, err
	}
	total := 0
	for _, o := range outcomes {
		total += o
	}
	return RollResult{
		Expression: tok.Raw,
		Total:      total,
		Rolls:      map[string][]RollGroup{tok.Raw: {outcomes}},
	}, nil
}
