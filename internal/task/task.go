// Package task provides a cancellable background future that a
// single-threaded tick loop can poll once per frame.
package task

import (
	"context"
	"sync"
	"time"
)

// Task runs at most one function at a time. Start while a run is
// outstanding is a no-op, and a cancelled run's late result is dropped.
type Task[T any] struct {
	mu         sync.Mutex
	generation uint64
	running    bool
	cancel     context.CancelFunc

	completed bool
	result    T
	err       error
}

// Start launches fn in a goroutine unless a run is already outstanding (in
// flight, or finished but not yet polled). It reports whether a new run was
// started.
func (t *Task[T]) Start(parent context.Context, fn func(ctx context.Context) (T, error)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running || t.completed {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	t.generation++
	gen := t.generation
	t.running = true
	t.cancel = cancel

	go func() {
		res, err := fn(ctx)
		cancel()

		t.mu.Lock()
		defer t.mu.Unlock()
		if gen != t.generation {
			return
		}
		t.running = false
		t.cancel = nil
		t.completed = true
		t.result = res
		t.err = err
	}()
	return true
}

// Outstanding reports whether a run is in flight or has an unpolled result.
func (t *Task[T]) Outstanding() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running || t.completed
}

// Running reports whether a run is still in flight.
func (t *Task[T]) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Poll returns the result of a finished run exactly once. ok is false while
// the run is in flight or when nothing was started.
func (t *Task[T]) Poll() (res T, err error, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.completed {
		return res, nil, false
	}
	res, err = t.result, t.err
	var zero T
	t.result, t.err, t.completed = zero, nil, false
	return res, err, true
}

// Cancel stops the outstanding run, if any, and discards anything it
// produces afterwards.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.generation++
	t.running = false
	t.cancel = nil
	var zero T
	t.result, t.err, t.completed = zero, nil, false
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitUntil polls cond every interval until it returns true or ctx is done.
func WaitUntil(ctx context.Context, interval time.Duration, cond func() bool) error {
	if cond() {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if cond() {
				return nil
			}
		}
	}
}
