package dice

import (
	"fmt"
	"strconv"
)

// Token is a parsed view of a primitive roll substring matching ^(\d*)d(\d+)$.
type Token struct {
	Raw   string // original substring, e.g. "d8" or "1d8"
	Count int    // number of dice; 1 when omitted
	Sides int    // faces per die
}

// Operator is one of the four arithmetic operators recognized between operands.
type Operator byte

const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
	OpMul Operator = '*'
	OpDiv Operator = '/'
)

func (o Operator) String() string { return string(o) }

type shapeKind int

const (
	shapeInvalid shapeKind = iota
	shapePrimitive
	shapeLiteral
	shapeCompound
)

// shape is the classification of one roll (sub)string.
type shape struct {
	kind  shapeKind
	token Token    // shapePrimitive
	value int      // shapeLiteral
	op    Operator // shapeCompound
	split int      // shapeCompound: index of op in the classified string
}

// classify determines the shape of s in a single left-to-right scan.
//
// A compound split is the first '+' or '-' in s; only when there is none is
// the first '*' or '/' used.
//
// Postcondition: returns a shape with kind != shapeInvalid, or an
// *InvalidRollStringError naming s.
func classify(s string) (shape, error) {
	dIdx, dCount := -1, 0
	addIdx, mulIdx := -1, -1
	other := false

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case c == 'd':
			if dIdx < 0 {
				dIdx = i
			}
			dCount++
		case c == '+' || c == '-':
			if addIdx < 0 {
				addIdx = i
			}
		case c == '*' || c == '/':
			if mulIdx < 0 {
				mulIdx = i
			}
		default:
			other = true
		}
	}

	plain := !other && addIdx < 0 && mulIdx < 0
	switch {
	case plain && dCount == 1 && dIdx < len(s)-1:
		tok, err := parsePrimitive(s, dIdx)
		if err != nil {
			return shape{}, err
		}
		return shape{kind: shapePrimitive, token: tok}, nil
	case plain && dCount == 0 && s != "":
		v, err := strconv.Atoi(s)
		if err != nil {
			return shape{}, invalid(s, fmt.Sprintf("integer out of range: %v", err))
		}
		return shape{kind: shapeLiteral, value: v}, nil
	case addIdx >= 0:
		return shape{kind: shapeCompound, op: Operator(s[addIdx]), split: addIdx}, nil
	case mulIdx >= 0:
		return shape{kind: shapeCompound, op: Operator(s[mulIdx]), split: mulIdx}, nil
	default:
		return shape{}, invalid(s, "not a roll, integer, or compound expression")
	}
}

// parsePrimitive parses s as "<count>d<sides>" with the 'd' at dIdx.
//
// Precondition: s[:dIdx] and s[dIdx+1:] contain only ASCII digits and the
// latter is non-empty.
func parsePrimitive(s string, dIdx int) (Token, error) {
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Token{}, invalid(s, fmt.Sprintf("die count out of range: %v", err))
		}
		if n > MaxDieCount {
			return Token{}, invalid(s, "die count too large")
		}
		count = n
	}
	sides, err := strconv.Atoi(s[dIdx+1:])
	if err != nil {
		return Token{}, invalid(s, fmt.Sprintf("die sides out of range: %v", err))
	}
	if sides < 1 {
		return Token{}, invalid(s, "die must have at least one side")
	}
	return Token{Raw: s, Count: count, Sides: sides}, nil
}

// ParseToken parses s as a single primitive roll token such as "3d6" or "d20".
//
// Postcondition: Returns a Token with Count >= 0 and Sides >= 1, or an
// *InvalidRollStringError.
func ParseToken(s string) (Token, error) {
	sh, err := classify(s)
	if err != nil {
		return Token{}, err
	}
	if sh.kind != shapePrimitive {
		return Token{}, invalid(s, "not a primitive roll")
	}
	return sh.token, nil
}
