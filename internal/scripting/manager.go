package scripting

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrMacroNotFound is returned by Expand when no loaded script defines the macro.
var ErrMacroNotFound = errors.New("scripting: macro not found")

// ErrMacroResult is returned by Expand when a macro returns something other
// than a string or an integer.
var ErrMacroResult = errors.New("scripting: macro must return a roll string")

// Manager owns one sandboxed LState holding every loaded roll macro.
//
// A macro is any global function defined by a loaded script. Manager is safe
// for concurrent use; calls into the VM are serialized.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	builtins  map[string]bool
	macros    map[string]bool
	logger    *zap.Logger
}

// NewManager creates a Manager with an empty sandboxed VM.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 uses DefaultInstructionLimit).
// Postcondition: Returns a non-nil Manager with no macros loaded.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	L := newBareSandbox()
	RegisterModules(L)

	builtins := make(map[string]bool)
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		builtins[k.String()] = true
	})

	return &Manager{
		L:         L,
		instLimit: instLimit,
		builtins:  builtins,
		macros:    make(map[string]bool),
		logger:    logger,
	}
}

// LoadDir executes every *.lua file in dir in lexicographic order and
// registers each newly defined global function as a macro.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns error on the first Lua load failure; macros defined
// by earlier files remain registered.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading macro dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, path := range luaFiles {
		if err := withLimit(m.L, m.instLimit, func() error { return m.L.DoFile(path) }); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	m.refreshMacros()

	m.logger.Info("roll macros loaded",
		zap.String("dir", dir),
		zap.Int("files", len(luaFiles)),
		zap.Int("macros", len(m.macros)),
	)
	return nil
}

func (m *Manager) refreshMacros() {
	m.L.G.Global.ForEach(func(k, v lua.LValue) {
		name := k.String()
		if m.builtins[name] {
			return
		}
		if _, ok := v.(*lua.LFunction); ok {
			m.macros[name] = true
		}
	})
}

// Macros returns the names of all loaded macros in lexicographic order.
func (m *Manager) Macros() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.macros))
	for name := range m.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand calls macro name with args and returns the roll string it produces.
//
// Postcondition: Returns the macro's string result; ErrMacroNotFound for an
// unknown name; ErrMacroResult for a non-string result; or a wrapped Lua
// runtime error (including instruction-limit exhaustion).
func (m *Manager) Expand(name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.macros[name] {
		return "", fmt.Errorf("%w: %q", ErrMacroNotFound, name)
	}

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LString(a)
	}

	err := withLimit(m.L, m.instLimit, func() error {
		return m.L.CallByParam(lua.P{
			Fn:      m.L.GetGlobal(name),
			NRet:    1,
			Protect: true,
		}, largs...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("macro", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("scripting: macro %q: %w", name, err)
	}

	ret := m.L.Get(-1)
	m.L.Pop(1)

	switch v := ret.(type) {
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return strconv.FormatInt(int64(f), 10), nil
		}
	}
	return "", fmt.Errorf("%w: %q returned %s", ErrMacroResult, name, ret.Type())
}

// Close releases the VM.
//
// Postcondition: The Manager is no longer usable after calling Close.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}
