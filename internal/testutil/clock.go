// Package testutil holds deterministic helpers shared by tests.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a new Clock.
var Epoch = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

// Clock is a deterministic wall clock for tests.
//
// Every call to Now returns the previous instant plus Step, so timestamps
// written by repositories are strictly increasing and reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewClock creates a clock whose first Now() returns Epoch.
func NewClock() *Clock {
	return &Clock{now: Epoch.Add(-time.Second), Step: time.Second}
}

// Now advances the clock by Step and returns the new instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.Step)
	return c.now
}

// Current returns the last instant handed out without advancing.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock so the next Now() returns Epoch again.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch.Add(-c.Step)
}
