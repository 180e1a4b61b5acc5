// Package dice provides the core randomness abstraction, the dice-notation
// evaluator, and the roll-result types for the dice roller service.
package dice

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultRollString is evaluated when a caller supplies no roll string.
const DefaultRollString = "1d20"

// RollGroup is the ordered outcomes of one occurrence of a roll token.
type RollGroup []int

// RollResult holds the full audit trail for a roll string evaluation.
//
// Invariant: Rolls is never nil. Each key's groups appear in the left-to-right
// order in which that token occurred in the evaluated string.
type RollResult struct {
	Expression string                 `json:"-" yaml:"-"` // evaluated (sub)string, e.g. "3d6+2"
	Total      int                    `json:"total" yaml:"total"`
	Rolls      map[string][]RollGroup `json:"rolls" yaml:"rolls"`
}

// Keys returns the roll-token keys of r.Rolls in lexicographic order.
func (r RollResult) Keys() []string {
	keys := make([]string, 0, len(r.Rolls))
	for k := range r.Rolls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroupCount returns the total number of roll groups across all keys.
func (r RollResult) GroupCount() int {
	n := 0
	for _, groups := range r.Rolls {
		n += len(groups)
	}
	return n
}

// String returns a human-readable audit string in the format:
//
//	"3d6+2 → 9 3d6=[[1 2 4]]"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s → %d", r.Expression, r.Total)
	for _, k := range r.Keys() {
		fmt.Fprintf(&b, " %s=%v", k, r.Rolls[k])
	}
	return b.String()
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
