// Package loop runs event handlers one at a time on a single goroutine.
package loop

import (
	"context"
	"time"
)

// Loop serializes events. Producers (timers, network readers, HTTP handlers)
// post closures; Run executes them in arrival order, never two at once.
type Loop struct {
	events chan func(context.Context)
}

// New creates a loop with room for backlog pending events.
func New(backlog int) *Loop {
	return &Loop{events: make(chan func(context.Context), backlog)}
}

// Post schedules fn. It waits for room in the backlog and gives up when ctx is done.
func (l *Loop) Post(ctx context.Context, fn func(context.Context)) bool {
	select {
	case l.events <- fn:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run executes posted events until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.events:
			fn(ctx)
		}
	}
}

// Every posts fn after initialDelay and then every interval until ctx is done.
// A non-positive interval disables the timer.
func (l *Loop) Every(ctx context.Context, initialDelay, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	go func() {
		if initialDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(initialDelay):
			}
			if !l.Post(ctx, fn) {
				return
			}
		}

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !l.Post(ctx, fn) {
					return
				}
			}
		}
	}()
}
