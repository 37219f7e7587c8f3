// Package rtqueue provides bounded, single-producer/single-consumer,
// allocation-free FIFOs that couple the real-time audio thread to non-RT
// control threads, per spec.md's concurrency model (C3): "Non-RT <-> RT
// communication uses only bounded SPSC lock-free queues and atomic
// variables. All queues are sized at startup."
//
// The queue's API shape (Size/IsEmpty/Clear, with Push in place of Add)
// is carried from the teacher's pkg/midi/queue.go EventQueue, but the implementation is a
// power-of-two ring buffer over atomics instead of a mutex-guarded slice:
// a mutex is a variable-time lock and is not RT-safe.
package rtqueue

import (
	"sync/atomic"

	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

// Queue is a bounded SPSC ring buffer of rtevent.Event. Capacity is
// rounded up to the next power of two at construction so index wrapping
// can use a bitmask instead of a modulo.
type Queue struct {
	buf  []rtevent.Event
	mask uint64

	// head is advanced by the consumer, tail by the producer. Padding
	// avoids false sharing between the two hot cache lines.
	head uint64
	_    [7]uint64
	tail uint64
	_    [7]uint64

	dropped atomic.Uint64
}

// New creates a Queue with at least capacity slots (rounded up to a power
// of two). All storage is allocated up front; Push/Pop never allocate.
func New(capacity int) *Queue {
	n := nextPowerOfTwo(capacity)
	return &Queue{
		buf:  make([]rtevent.Event, n),
		mask: uint64(n - 1),
	}
}

func nextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Push enqueues an event. Safe to call from exactly one producer thread
// concurrently with Pop on exactly one consumer thread. Returns false and
// increments the dropped counter if the queue is full; it never blocks
// and never allocates, so it is RT-safe to call from either side.
func (q *Queue) Push(e rtevent.Event) bool {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if tail-head >= uint64(len(q.buf)) {
		q.dropped.Add(1)
		return false
	}
	q.buf[tail&q.mask] = e
	atomic.StoreUint64(&q.tail, tail+1)
	return true
}

// Pop dequeues the oldest event. Returns false if the queue is empty.
func (q *Queue) Pop() (rtevent.Event, bool) {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if head == tail {
		return rtevent.Event{}, false
	}
	e := q.buf[head&q.mask]
	atomic.StoreUint64(&q.head, head+1)
	return e, true
}

// DrainUpTo pops up to max pending events into fn, stopping early if fn
// returns false. Used by the Engine to drain "up to its current size" at
// the start of a chunk without racing a producer that keeps adding after
// the drain started.
func (q *Queue) DrainUpTo(max int, fn func(rtevent.Event) bool) int {
	n := 0
	for n < max {
		e, ok := q.Pop()
		if !ok {
			break
		}
		n++
		if !fn(e) {
			break
		}
	}
	return n
}

// Size returns a snapshot of the number of pending events. Approximate
// under concurrent Push/Pop, exact when called from either the sole
// producer or sole consumer between operations.
func (q *Queue) Size() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	return int(tail - head)
}

// IsEmpty reports whether the queue currently has no pending events.
func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

// Capacity returns the number of slots backing the queue.
func (q *Queue) Capacity() int {
	return len(q.buf)
}

// Dropped returns the number of Push calls that failed because the queue
// was full, counted per spec.md §4.5: "Dropped events (queue full) are
// counted and surfaced as a non-fatal warning."
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Clear drops all pending events. Not RT-safe to call concurrently with
// Push from the producer side; intended for test setup and teardown.
func (q *Queue) Clear() {
	atomic.StoreUint64(&q.head, 0)
	atomic.StoreUint64(&q.tail, 0)
}
