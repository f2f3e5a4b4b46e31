// Package queue provides the in-memory work queue and the single-consumer
// worker loop that drive the background enrichment pipelines.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Dequeue once the queue is closed and drained,
// and by Enqueue after Close.
var ErrQueueClosed = errors.New("work queue is closed")

// WorkQueue is an unbounded FIFO. Producers never block on capacity; the
// consumer blocks in Dequeue until an item arrives or its context ends.
type WorkQueue[T any] struct {
	items  []T
	mu     sync.Mutex
	ready  chan struct{}
	closed bool
}

func NewWorkQueue[T any]() *WorkQueue[T] {
	return &WorkQueue[T]{
		ready: make(chan struct{}, 1),
	}
}

// Enqueue appends an item. It only ever waits on the internal mutex.
func (q *WorkQueue[T]) Enqueue(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.signal()
	return nil
}

// Dequeue removes the oldest item, waiting for one when the queue is empty.
// A cancelled ctx wins over waiting items.
func (q *WorkQueue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len reports the number of waiting items.
func (q *WorkQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting items. Items already queued can still be dequeued.
func (q *WorkQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *WorkQueue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
