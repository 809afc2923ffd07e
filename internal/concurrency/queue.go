// File: internal/concurrency/queue.go
//
// Bounded MPMC queue using per-cell sequence numbers, after the pattern
// by Dmitry Vyukov. Head and tail live on separate cache lines.

package concurrency

import "sync/atomic"

const cacheLinePad = 64

// Queue is a bounded multi-producer/multi-consumer queue. Capacity is
// rounded up to a power of two.
type Queue[T any] struct {
	head  atomic.Uint64
	_     [cacheLinePad]byte
	tail  atomic.Uint64
	_     [cacheLinePad]byte
	mask  uint64
	cells []cell[T]
}

type cell[T any] struct {
	sequence atomic.Uint64
	data     T
}

// NewQueue creates a queue holding at least capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	size := 2
	for size < capacity {
		size <<= 1
	}
	q := &Queue[T]{
		mask:  uint64(size - 1),
		cells: make([]cell[T], size),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

// Enqueue adds val; returns false if the queue is full.
func (q *Queue[T]) Enqueue(val T) bool {
	for {
		tail := q.tail.Load()
		c := &q.cells[tail&q.mask]
		dif := int64(c.sequence.Load()) - int64(tail)

		switch {
		case dif == 0:
			if q.tail.CompareAndSwap(tail, tail+1) {
				c.data = val
				c.sequence.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false // full
		}
		// tail moved, retry
	}
}

// Dequeue removes the oldest item; ok is false if the queue is empty.
func (q *Queue[T]) Dequeue() (item T, ok bool) {
	for {
		head := q.head.Load()
		c := &q.cells[head&q.mask]
		dif := int64(c.sequence.Load()) - int64(head+1)

		switch {
		case dif == 0:
			if q.head.CompareAndSwap(head, head+1) {
				item = c.data
				var zero T
				c.data = zero
				c.sequence.Store(head + q.mask + 1)
				return item, true
			}
		case dif < 0:
			var zero T
			return zero, false // empty
		}
		// head moved, retry
	}
}

// Len returns the approximate number of queued items.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.cells)
}
