package testutil

import "sync"

// StepClock is a deterministic block clock for tests.
//
// The first call to Now() returns start; each later call advances by step.
// A step of 0 freezes time. Implements engine.Clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start uint32
	step  uint32
	next  uint32
}

// DefaultStart is the timestamp StepClock starts from when given 0.
const DefaultStart uint32 = 1700000000

// NewStepClock creates a clock starting at start (DefaultStart if 0).
func NewStepClock(start, step uint32) *StepClock {
	if start == 0 {
		start = DefaultStart
	}
	return &StepClock{start: start, step: step, next: start}
}

// Now returns the current timestamp and advances the clock.
func (c *StepClock) Now() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.next
	c.next += c.step
	return ts
}

// Peek returns the timestamp the next Now() will return.
func (c *StepClock) Peek() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
