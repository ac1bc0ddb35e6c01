// Package queue provides an unbounded FIFO channel with a single consumer.
//
// The transport's read loop must never block on a slow consumer, so both the
// incoming-message queue and the outbound event queue are unbounded: Push
// always returns immediately, and the consumer drains C at its own cadence.
package queue

import "sync"

// Queue is an unbounded FIFO. Push never blocks. Items are delivered on C in
// push order. A Queue is intended for exactly one consumer; sharing C between
// readers splits delivery nondeterministically.
type Queue[T any] struct {
	mu     sync.Mutex
	buf    []T
	closed bool

	wake chan struct{}
	out  chan T
}

// New creates a Queue and starts its delivery goroutine.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}
	go q.pump()
	return q
}

// Push enqueues v. It never blocks. Pushes after Close are dropped.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.buf = append(q.buf, v)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// C returns the receive side. It is closed after Close once all previously
// pushed items have been delivered.
func (q *Queue[T]) C() <-chan T {
	return q.out
}

// Close marks the queue closed. Items already pushed are still delivered.
// Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) pump() {
	for {
		q.mu.Lock()
		for len(q.buf) == 0 && !q.closed {
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		if len(q.buf) == 0 {
			// closed and drained
			q.mu.Unlock()
			close(q.out)
			return
		}
		v := q.buf[0]
		q.buf = q.buf[1:]
		q.mu.Unlock()

		q.out <- v
	}
}
