// Package testutil provides deterministic test doubles for the simulator:
// a manually driven clock and scripted delay sources.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the fixed starting instant of every FakeClock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeClock is a manually driven clock. Time only moves via Sleep, Advance
// or the configured per-read tick, so tests control exactly when a deadline
// passes.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	tick time.Duration
}

// NewFakeClock returns a clock frozen at Epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch}
}

// Now returns the current fake instant, then advances it by the configured
// tick.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.now
	c.now = c.now.Add(c.tick)
	return n
}

// Sleep advances the clock by d without blocking.
func (c *FakeClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SetTick makes every Now call advance the clock by d after reading it.
func (c *FakeClock) SetTick(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = d
}
