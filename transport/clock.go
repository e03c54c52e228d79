package transport

import (
	"math/rand"
	"sync"
	"time"
)

// Clock abstracts wall time so simulations can run against a fake clock in
// tests. Sleep must advance the clock's own notion of now.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }

// DelaySource yields values in [0, 1) driving simulated processing delays
// and call outcomes. Implementations must be safe for concurrent use by a
// fan-out dispatch.
type DelaySource interface {
	Float64() float64
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// NewDelaySource returns a seeded, lock-protected uniform source. The same
// seed reproduces the same outcome sequence for a sequential dispatch.
func NewDelaySource(seed int64) DelaySource {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}
