// Package queue provides an ordered store-and-forward queue with head-of-line retry.
package queue

import (
	"context"

	"go.uber.org/zap"
)

// DispatchFunc delivers one item. A nil error means the item is delivered.
type DispatchFunc[T any] func(ctx context.Context, item T) error

// Option configures a Queue.
type Option[T any] func(*Queue[T])

// WithRequeue sets a hook applied to an item every time it is parked in the queue.
func WithRequeue[T any](fn func(T) T) Option[T] {
	return func(q *Queue[T]) { q.requeue = fn }
}

// WithLogger sets the logger.
func WithLogger[T any](logger *zap.SugaredLogger) Option[T] {
	return func(q *Queue[T]) { q.logger = logger }
}

// Queue is a FIFO of undelivered items. The head item is always the next one
// attempted and is removed only after a successful dispatch, so a failing head
// blocks everything behind it.
//
// Queue is not safe for concurrent use; it is meant to be owned by one event loop.
type Queue[T any] struct {
	name     string
	items    []T
	dispatch DispatchFunc[T]
	requeue  func(T) T
	logger   *zap.SugaredLogger
}

// New creates an empty queue delivering through dispatch.
func New[T any](name string, dispatch DispatchFunc[T], opts ...Option[T]) *Queue[T] {
	q := &Queue[T]{
		name:     name,
		dispatch: dispatch,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// TrySendNow attempts one immediate dispatch of item without touching the queue.
func (q *Queue[T]) TrySendNow(ctx context.Context, item T) error {
	return q.dispatch(ctx, item)
}

// Enqueue parks item at the tail.
func (q *Queue[T]) Enqueue(item T) {
	if q.requeue != nil {
		item = q.requeue(item)
	}
	q.items = append(q.items, item)
}

// Submit sends item right away when nothing is waiting, otherwise (or on failure)
// parks it behind the waiting items. It reports whether item was delivered now.
func (q *Queue[T]) Submit(ctx context.Context, item T) bool {
	if len(q.items) > 0 {
		q.Enqueue(item)
		q.logger.Debugw("queue busy, item parked", "queue", q.name, "len", len(q.items))
		return false
	}
	if err := q.TrySendNow(ctx, item); err != nil {
		q.Enqueue(item)
		q.logger.Debugw("immediate send failed, item parked", "queue", q.name, "len", len(q.items), "err", err)
		return false
	}
	return true
}

// Flush dispatches items from the head until the queue is empty or a dispatch fails.
// It returns the number of delivered items and the error that stopped it, if any.
func (q *Queue[T]) Flush(ctx context.Context) (int, error) {
	sent := 0
	for len(q.items) > 0 {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := q.dispatch(ctx, q.items[0]); err != nil {
			q.logger.Debugw("flush stopped", "queue", q.name, "sent", sent, "left", len(q.items), "err", err)
			return sent, err
		}
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		sent++
	}
	if sent > 0 {
		q.logger.Debugw("flush complete", "queue", q.name, "sent", sent)
	}
	q.items = nil
	return sent, nil
}

// Peek returns the head item without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Pop removes the head item after it was delivered outside Flush.
func (q *Queue[T]) Pop() {
	if len(q.items) == 0 {
		return
	}
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
}

// Len returns the number of waiting items.
func (q *Queue[T]) Len() int { return len(q.items) }

// Items returns a copy of the waiting items, head first.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
