package testutil

import "sync"

// ScriptedSource replays a fixed sequence of values as random draws.
//
// It satisfies tetromino.Source and matchmaker.IDSource, so tests can pin
// the piece order, garbage holes and participant ids they expect. When the
// script runs out it starts again from the beginning.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedSource struct {
	mu     sync.Mutex
	values []int64
	idx    int
	draws  int
}

// NewScriptedSource creates a source that returns values in order.
//
// Example:
//
//	src := NewScriptedSource(3, 3, 0)
//	src.IntN(7) // 3 (O)
//	src.IntN(7) // 3 (O)
//	src.IntN(7) // 0 (I)
//	src.IntN(7) // 3 again
func NewScriptedSource(values ...int64) *ScriptedSource {
	if len(values) == 0 {
		values = []int64{0}
	}
	return &ScriptedSource{values: values}
}

// IntN returns the next scripted value reduced into [0, n).
func (s *ScriptedSource) IntN(n int) int {
	v := s.next()
	if n <= 0 {
		return 0
	}
	r := int(v % int64(n))
	if r < 0 {
		r += n
	}
	return r
}

// Int64 returns the next scripted value unchanged.
func (s *ScriptedSource) Int64() int64 {
	return s.next()
}

// Draws reports how many values have been consumed.
func (s *ScriptedSource) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Reset rewinds the script to its first value.
func (s *ScriptedSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = 0
	s.draws = 0
}

func (s *ScriptedSource) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.idx]
	s.idx = (s.idx + 1) % len(s.values)
	s.draws++
	return v
}
