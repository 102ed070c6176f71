package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is the read side of a FrameClock, for components that only need
// the current frame time.
type Clock interface {
	Now() time.Time
}

// Mode describes how the FrameClock paces frames.
type Mode int

const (
	// RealTime paces frames against the wall clock.
	RealTime Mode = iota
	// Accelerated emits frames back to back, still stepping by Frame.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// FrameListener is invoked once per frame with the frame time and the
// elapsed seconds since the previous frame.
type FrameListener func(now time.Time, dt float64)

// FrameClock drives the per-frame tick loop. Listeners run sequentially on
// the clock's goroutine, so a listener must never block.
type FrameClock struct {
	mu        sync.RWMutex
	StartTime time.Time
	Frame     time.Duration
	Mode      Mode

	currentTime time.Time
	frames      uint64

	listeners []FrameListener
}

// NewFrameClock constructs a clock that will emit frames of the given length.
func NewFrameClock(start time.Time, frame time.Duration, mode Mode) *FrameClock {
	return &FrameClock{
		StartTime:   start,
		Frame:       frame,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current frame time.
func (c *FrameClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentTime
}

// SetTime jumps the clock without emitting a frame.
func (c *FrameClock) SetTime(t time.Time) {
	c.mu.Lock()
	c.currentTime = t
	c.mu.Unlock()
}

// Frames returns the number of frames emitted so far.
func (c *FrameClock) Frames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

// AddListener registers a callback invoked on every frame.
func (c *FrameClock) AddListener(fn FrameListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Step advances the clock by exactly one frame and notifies listeners on
// the caller's goroutine.
func (c *FrameClock) Step() {
	c.mu.Lock()
	c.currentTime = c.currentTime.Add(c.Frame)
	c.frames++
	now := c.currentTime
	listeners := append([]FrameListener(nil), c.listeners...)
	c.mu.Unlock()

	dt := c.Frame.Seconds()
	for _, fn := range listeners {
		fn(now, dt)
	}
}

// Start runs the clock for the given duration (0 = until ctx is done) in a
// separate goroutine. The returned channel is closed when it stops.
func (c *FrameClock) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var tick <-chan time.Time
		if c.Mode == RealTime {
			ticker := time.NewTicker(c.Frame)
			defer ticker.Stop()
			tick = ticker.C
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}

			c.Step()
			elapsed += c.Frame
		}
	}()
	return done
}
