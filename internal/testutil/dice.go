// Package testutil provides test helpers shared across packages, including
// deterministic dice sources.
package testutil

import (
	"fmt"
	"sync"
)

// ScriptedSource is a dice.Source that yields a fixed sequence of die faces.
//
// Each call to Intn(n) consumes the next scripted face f and returns f-1, so a
// die rolled through it shows exactly f. Safe for concurrent use.
type ScriptedSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewScriptedSource returns a source that yields faces in order.
//
// Precondition: every face must be >= 1.
func NewScriptedSource(faces ...int) *ScriptedSource {
	return &ScriptedSource{faces: faces}
}

// Intn returns the next scripted face minus one.
//
// Precondition: n > 0, the script is not exhausted, and the next face is in [1, n].
// Panics when a precondition is violated so tests fail loudly.
func (s *ScriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		panic("testutil: Intn called with n <= 0")
	}
	if s.next >= len(s.faces) {
		panic(fmt.Sprintf("testutil: scripted source exhausted after %d draws", s.next))
	}
	f := s.faces[s.next]
	if f < 1 || f > n {
		panic(fmt.Sprintf("testutil: scripted face %d out of range [1, %d]", f, n))
	}
	s.next++
	return f - 1
}

// Used returns how many faces have been consumed.
func (s *ScriptedSource) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// MaxSource is a dice.Source whose every die shows its highest face.
type MaxSource struct{}

// Intn returns n-1.
func (MaxSource) Intn(n int) int { return n - 1 }
