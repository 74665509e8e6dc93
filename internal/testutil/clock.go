// Package testutil holds deterministic stand-ins for the registry's
// clock, token and seed sources, used by tests and the scenario harness.
package testutil

import "sync"

// DeterministicClock is a resettable operation sequence.
//
// Unlike registry.Clock it can be rewound, so the same scenario can run
// repeatedly with identical sequence numbers and therefore identical
// trait selectors.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock at 0. The first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.ResetTo(0)
}

// ResetTo rewinds or advances the clock so the next call returns seq+1.
func (c *DeterministicClock) ResetTo(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = seq
}
