package queue

import (
	"errors"
	"sync"
)

// ErrQueueFull is returned by Push when the items would exceed the limit.
var ErrQueueFull = errors.New("queue full")

// Queue is a generic thread-safe FIFO queue with an optional size limit.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
}

// New creates a new empty queue. A limit of zero leaves it unbounded.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
		limit: limit,
	}
}

// Push appends items to the queue. Either all items are queued or, when
// they do not fit, none are and ErrQueueFull is returned.
func (q *Queue[T]) Push(items ...T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 && len(q.items)+len(items) > q.limit {
		return ErrQueueFull
	}
	q.items = append(q.items, items...)
	return nil
}

// Pop removes and returns the first item. ok is false when empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Limit returns the size limit, zero when unbounded.
func (q *Queue[T]) Limit() int {
	return q.limit
}

// Clear removes all items from the queue.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.items)
	q.items = q.items[:0]
}

// GetAndEmpty returns all items in order and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}
