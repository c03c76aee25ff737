package engine

import "sync/atomic"

// Clock is a monotonic logical clock stamping every handled event.
//
// Sequence numbers restart at each RunStarted, so the same event stream
// yields the same numbering on every replay of a run. They appear in logs
// and let harness traces line up with engine output.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The engine's single-writer design means only one goroutine calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock to 0.
func (c *Clock) Reset() {
	c.seq.Store(0)
}
