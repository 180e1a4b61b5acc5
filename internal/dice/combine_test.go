package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCombine_MergesLeftBeforeRight(t *testing.T) {
	left := RollResult{Total: 7, Rolls: map[string][]RollGroup{
		"d8":  {{3}},
		"2d6": {{1, 3}},
	}}
	right := RollResult{Total: 5, Rolls: map[string][]RollGroup{
		"d8": {{5}},
	}}

	got, err := Combine(left, right, OpAdd)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Total)
	assert.Equal(t, map[string][]RollGroup{
		"d8":  {{3}, {5}},
		"2d6": {{1, 3}},
	}, got.Rolls)
}

func TestCombine_DoesNotAliasInputs(t *testing.T) {
	left := RollResult{Total: 3, Rolls: map[string][]RollGroup{"d8": {{3}}}}
	right := RollResult{Total: 5, Rolls: map[string][]RollGroup{"d8": {{5}}}}

	got, err := Combine(left, right, OpAdd)
	require.NoError(t, err)
	got.Rolls["d8"][0][0] = 99
	got.Rolls["d8"] = append(got.Rolls["d8"], RollGroup{1})

	assert.Equal(t, map[string][]RollGroup{"d8": {{3}}}, left.Rolls)
	assert.Equal(t, map[string][]RollGroup{"d8": {{5}}}, right.Rolls)
}

func TestCombine_Operators(t *testing.T) {
	l := RollResult{Total: -7, Rolls: map[string][]RollGroup{}}
	r := RollResult{Total: 2, Rolls: map[string][]RollGroup{}}
	cases := map[Operator]int{OpAdd: -5, OpSub: -9, OpMul: -14, OpDiv: -4}
	for op, want := range cases {
		got, err := Combine(l, r, op)
		require.NoError(t, err, "op %s", op)
		assert.Equal(t, want, got.Total, "op %s", op)
	}
}

func TestCombine_DivisionByZero(t *testing.T) {
	l := RollResult{Total: 4, Rolls: map[string][]RollGroup{}}
	r := RollResult{Total: 0, Rolls: map[string][]RollGroup{}}
	_, err := Combine(l, r, OpDiv)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestCombine_UnknownOperator(t *testing.T) {
	_, err := Combine(RollResult{}, RollResult{}, Operator('%'))
	assert.Error(t, err)
	assert.False(t, IsValidationError(err))
}

// TestFloorDiv_Property verifies floorDiv rounds toward negative infinity.
func TestFloorDiv_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(-10000, 10000).Draw(rt, "a")
		b := rapid.IntRange(-100, 100).Filter(func(v int) bool { return v != 0 }).Draw(rt, "b")
		q := floorDiv(a, b)
		// q is the largest integer with q*b <= a (b > 0) or q*b >= a (b < 0).
		rem := a - q*b
		if b > 0 {
			assert.True(rt, rem >= 0 && rem < b, "a=%d b=%d q=%d", a, b, q)
		} else {
			assert.True(rt, rem <= 0 && rem > b, "a=%d b=%d q=%d", a, b, q)
		}
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		kind shapeKind
		op   Operator
		at   int
	}{
		{"3d6", shapePrimitive, 0, 0},
		{"d20", shapePrimitive, 0, 0},
		{"17", shapeLiteral, 0, 0},
		{"2*3+1", shapeCompound, OpAdd, 3},
		{"1d4*2-1", shapeCompound, OpSub, 5},
		{"6/2*3", shapeCompound, OpDiv, 1},
		{"-5", shapeCompound, OpSub, 0},
	}
	for _, tc := range cases {
		sh, err := classify(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.kind, sh.kind, tc.in)
		if tc.kind == shapeCompound {
			assert.Equal(t, tc.op, sh.op, tc.in)
			assert.Equal(t, tc.at, sh.split, tc.in)
		}
	}

	for _, bad := range []string{"", "d", "dd6", "3d", "abc", "3d6 "} {
		_, err := classify(bad)
		assert.ErrorIs(t, err, ErrInvalidRollString, bad)
	}
}
