package core

import (
	"sync"
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	return &Time{
		fps:           cfg.FramesPerSecond,
		fpsTicker:     time.NewTicker(interval(cfg.FramesPerSecond)),
		ups:           cfg.UpdatesPerSecond,
		updatesTicker: time.NewTicker(interval(cfg.UpdatesPerSecond)),
	}
}

func interval(perSecond int) time.Duration {
	if perSecond <= 0 {
		return time.Nanosecond
	}
	return time.Second / time.Duration(perSecond)
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	ups           int
	updatesTicker *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// Ups gets the set updates per second
func (t *Time) Ups() int {
	return t.ups
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// UpdateTicker gets the initialized ticker for the update loop
func (t *Time) UpdateTicker() *time.Ticker {
	return t.updatesTicker
}

// Stop stops all tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.updatesTicker.Stop()
}

// Clock measures the time between update phases
type Clock struct {
	mutex sync.Mutex
	now   func() time.Time
	last  time.Time
}

// NewClock creates a clock reading the wall clock
func NewClock() *Clock {
	return NewClockFunc(time.Now)
}

// NewClockFunc creates a clock reading now, used to drive time in tests
func NewClockFunc(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Tick returns seconds elapsed since the previous Tick, zero on the first one
func (c *Clock) Tick() float32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	dt := now.Sub(c.last)
	c.last = now
	return float32(dt.Seconds())
}
