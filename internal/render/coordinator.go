// Package render draws celebration effects on a terminal and serializes them
// behind a single process-wide render slot so concurrent events cannot
// interleave escape sequences or spam the screen.
package render

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between the end of one render and the
// start of the next. Requests inside the window are dropped, not queued.
const DefaultCooldown = 5 * time.Second

// Coordinator is the process-wide render slot. The zero value is not usable;
// construct with NewCoordinator.
type Coordinator struct {
	mu       sync.Mutex
	busy     bool
	lastEnd  time.Time
	cooldown time.Duration

	now func() time.Time // injectable clock for tests
}

// NewCoordinator returns a coordinator with the given inter-render cooldown.
func NewCoordinator(cooldown time.Duration) *Coordinator {
	return &Coordinator{cooldown: cooldown, now: time.Now}
}

// TryAcquire claims the render slot. It fails (returns false) when a render
// is in progress or the cooldown since the previous render has not elapsed.
// Callers must Release after the render ends, success or not.
func (c *Coordinator) TryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return false
	}
	if !c.lastEnd.IsZero() && c.now().Sub(c.lastEnd) < c.cooldown {
		return false
	}
	c.busy = true
	return true
}

// Release frees the slot and starts the cooldown window.
func (c *Coordinator) Release() {
	c.mu.Lock()
	c.busy = false
	c.lastEnd = c.now()
	c.mu.Unlock()
}
