package registry

import "sync/atomic"

// Clock is the registry's monotonic operation sequence.
//
// Every mutating call draws one value. Create and breed feed it to the
// trait generator as the disambiguator, and journal entries carry it as
// their seq. Rejected calls also consume a value, so the journal may have
// gaps but never repeats.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// New uses it to continue from the last journaled sequence.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
