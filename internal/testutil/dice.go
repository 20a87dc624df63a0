package testutil

// FixedSource is a dice source that always returns the same value.
//
// Val is the raw Intn result, so a die face of f needs Val = f-1.
type FixedSource struct {
	Val int
}

// Intn returns Val regardless of n.
func (s *FixedSource) Intn(n int) int { return s.Val }

// ScriptedSource replays a fixed sequence of Intn results, wrapping around
// when the script is exhausted.
type ScriptedSource struct {
	Script []int
	pos    int
}

// Intn returns the next scripted value.
//
// Precondition: Script must be non-empty.
func (s *ScriptedSource) Intn(n int) int {
	v := s.Script[s.pos%len(s.Script)]
	s.pos++
	return v
}
