package scripting

import (
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/diceroller/internal/dice"
)

// RegisterModules registers the dice.* helper table into L.
//
//	dice.default          the roll string used when a caller supplies none
//	dice.token(n, sides)  "<n>d<sides>"; n is omitted when nil
//	dice.sum(a, b, ...)   terms joined with "+"
//
// Precondition: L must be a sandboxed state.
// Postcondition: dice global is defined in L.
func RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "default", lua.LString(dice.DefaultRollString))
	L.SetField(mod, "token", L.NewFunction(luaToken))
	L.SetField(mod, "sum", L.NewFunction(luaSum))
	L.SetGlobal("dice", mod)
}

func luaToken(L *lua.LState) int {
	sides := L.CheckInt(2)
	if sides < 1 {
		L.ArgError(2, "sides must be >= 1")
		return 0
	}
	prefix := ""
	if L.Get(1) != lua.LNil {
		n := L.CheckInt(1)
		if n < 0 {
			L.ArgError(1, "count must be >= 0")
			return 0
		}
		prefix = strconv.Itoa(n)
	}
	L.Push(lua.LString(prefix + "d" + strconv.Itoa(sides)))
	return 1
}

func luaSum(L *lua.LState) int {
	terms := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		terms = append(terms, L.CheckString(i))
	}
	L.Push(lua.LString(strings.Join(terms, "+")))
	return 1
}
