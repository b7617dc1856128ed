package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown decrements a seconds counter once per second until it reaches
// zero, then stops. Ticks never touch the network: every participant counts
// down on their own clock after the one start-timer event, so small drift
// between peers is expected and accepted.
type Countdown struct {
	clock clockwork.Clock

	mu        sync.Mutex
	remaining int
	active    bool
	cancel    chan struct{}
}

// NewCountdown creates an idle countdown driven by the given clock.
func NewCountdown(clock clockwork.Clock) *Countdown {
	return &Countdown{clock: clock}
}

// Start begins a countdown from the given number of seconds. A countdown
// already running is replaced outright; there is no stacking. Non-positive
// durations leave the countdown idle at zero.
func (c *Countdown) Start(seconds int) {
	c.mu.Lock()

	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}

	if seconds <= 0 {
		c.remaining = 0
		c.active = false
		c.mu.Unlock()
		return
	}

	cancel := make(chan struct{})
	c.cancel = cancel
	c.remaining = seconds
	c.active = true
	c.mu.Unlock()

	// Create the ticker before spawning the goroutine so the tick source is
	// registered with the clock by the time Start returns.
	ticker := c.clock.NewTicker(time.Second)
	go c.run(cancel, ticker)
}

func (c *Countdown) run(cancel chan struct{}, ticker clockwork.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			c.mu.Lock()
			if c.cancel != cancel {
				// Replaced by a newer countdown while we waited for the tick.
				c.mu.Unlock()
				return
			}
			c.remaining--
			if c.remaining <= 0 {
				c.remaining = 0
				c.active = false
				c.cancel = nil
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		case <-cancel:
			return
		}
	}
}

// Remaining returns the seconds left and whether a countdown is running.
func (c *Countdown) Remaining() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining, c.active
}

// Stop cancels any running countdown and resets it to idle.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	c.remaining = 0
	c.active = false
}
