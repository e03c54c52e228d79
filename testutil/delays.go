package testutil

import "sync"

// ScriptedDelays is a DelaySource replaying a fixed value sequence,
// wrapping around when exhausted. Safe for concurrent use.
type ScriptedDelays struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewScriptedDelays builds a source replaying values. An empty sequence
// always yields 0.
func NewScriptedDelays(values ...float64) *ScriptedDelays {
	return &ScriptedDelays{values: values}
}

// Float64 returns the next scripted value.
func (s *ScriptedDelays) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// PanicDelays is a DelaySource whose Float64 always panics, for exercising
// fault recovery in token streams.
type PanicDelays struct{}

func (PanicDelays) Float64() float64 {
	panic("scripted delay source fault")
}
