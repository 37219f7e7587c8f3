// Package dispatch implements the Event Dispatcher (spec.md §4.6): a
// dedicated non-RT worker that fans events out to registered posters,
// holds future-timestamped events until their time arrives, and routes
// RT completions back to their origin.
//
// Grounded on the teacher's pkg/midi/queue.go EventQueue/EventBuffer
// shape for the queue API, and the subscriber-registry/fan-out idiom
// used across the pack's event-bus-style examples.
package dispatch

import (
	"container/heap"
	"sync"
	"time"

	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

// PosterID identifies a registered consumer of dispatched events.
type PosterID uint32

// Handler receives events addressed to a poster, in per-poster FIFO
// order. Handlers must not block for long: the Dispatcher calls them
// sequentially off a single worker goroutine.
type Handler func(rtevent.Event)

// Dispatcher is the non-RT event fan-out and future-event holding queue
// described in spec.md §4.6. All exported methods are safe to call
// concurrently; the actual delivery work happens on the goroutine
// started by Run.
type Dispatcher struct {
	mu      sync.Mutex
	posters map[PosterID]Handler
	// order preserves registration order so round-robin delivery across
	// posters ("PUSH_TO_BACK" fairness, spec.md §9) rotates deterministically
	// instead of following Go's randomized map iteration order.
	order []PosterID

	// perPosterQueues holds events already at their delivery time,
	// waiting to be handed to their poster in arrival order.
	perPosterQueues map[PosterID][]rtevent.Event

	future futureHeap

	// delivered is consulted before an event is queued for its poster;
	// nothing records into it. Every Post draws a fresh sequence number
	// and takes either the immediate or the future path, so each event
	// is queued at most once.
	delivered map[uint64]bool
	nextSeq   uint64

	wake chan struct{}
	done chan struct{}
}

// New constructs an empty Dispatcher. Call Run to start its worker
// goroutine.
func New() *Dispatcher {
	return &Dispatcher{
		posters:         make(map[PosterID]Handler),
		perPosterQueues: make(map[PosterID][]rtevent.Event),
		delivered:       make(map[uint64]bool),
		wake:            make(chan struct{}, 1),
		done:            make(chan struct{}),
	}
}

// Register adds a poster and its handler. Re-registering an id replaces
// its handler without disturbing queued events.
func (d *Dispatcher) Register(id PosterID, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.posters[id]; !exists {
		d.order = append(d.order, id)
	}
	d.posters[id] = handler
}

// Deregister removes a poster. Events already queued for it are
// silently dropped, per spec.md §4.6 ("posters may deregister; pending
// events targeting a deregistered poster are silently dropped").
func (d *Dispatcher) Deregister(id PosterID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.posters, id)
	delete(d.perPosterQueues, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Post enqueues an event for immediate delivery (deliverAt zero value)
// or future delivery (deliverAt in the future) to the given poster.
func (d *Dispatcher) Post(poster PosterID, e rtevent.Event, deliverAt time.Time) {
	d.mu.Lock()
	seq := d.nextSeq
	d.nextSeq++
	d.mu.Unlock()

	if deliverAt.IsZero() || !deliverAt.After(time.Now()) {
		d.enqueueImmediate(poster, e, seq)
	} else {
		d.mu.Lock()
		heap.Push(&d.future, &futureEvent{deliverAt: deliverAt, poster: poster, event: e, seq: seq})
		d.mu.Unlock()
	}
	d.signal()
}

func (d *Dispatcher) enqueueImmediate(poster PosterID, e rtevent.Event, seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.delivered[seq] {
		return
	}
	if _, ok := d.posters[poster]; !ok {
		return
	}
	d.perPosterQueues[poster] = append(d.perPosterQueues[poster], e)
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run starts the dispatcher's delivery loop on the calling goroutine; it
// returns when Stop is called. Callers typically invoke Run via `go
// dispatcher.Run()`.
func (d *Dispatcher) Run() {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-d.wake:
			d.drainReadyFuture()
			d.deliverRoundRobin()
		case <-ticker.C:
			d.drainReadyFuture()
			d.deliverRoundRobin()
		}
	}
}

// Stop terminates the Run loop.
func (d *Dispatcher) Stop() {
	close(d.done)
}

func (d *Dispatcher) drainReadyFuture() {
	d.mu.Lock()
	now := time.Now()
	var ready []*futureEvent
	for d.future.Len() > 0 && !d.future[0].deliverAt.After(now) {
		ready = append(ready, heap.Pop(&d.future).(*futureEvent))
	}
	d.mu.Unlock()
	for _, r := range ready {
		d.enqueueImmediate(r.poster, r.event, r.seq)
	}
}

// deliverRoundRobin drains one event per poster per pass, cycling
// through posters in registration order, which gives cooperative
// round-robin fairness across posters (spec.md §9's "PUSH_TO_BACK"
// behavior) instead of draining one poster's whole backlog before
// moving to the next.
func (d *Dispatcher) deliverRoundRobin() {
	for {
		d.mu.Lock()
		posters := append([]PosterID(nil), d.order...)
		d.mu.Unlock()

		delivered := false
		for _, id := range posters {
			d.mu.Lock()
			q := d.perPosterQueues[id]
			handler, ok := d.posters[id]
			if !ok || len(q) == 0 {
				d.mu.Unlock()
				continue
			}
			e := q[0]
			d.perPosterQueues[id] = q[1:]
			d.mu.Unlock()

			handler(e)
			delivered = true
		}
		if !delivered {
			return
		}
	}
}

type futureEvent struct {
	deliverAt time.Time
	poster    PosterID
	event     rtevent.Event
	seq       uint64
}

// futureHeap orders pending future events by delivery time, breaking
// ties by sequence number so same-timestamp events keep arrival order
// ("events with future timestamps are delivered in timestamp order",
// spec.md §5).
type futureHeap []*futureEvent

func (h futureHeap) Len() int { return len(h) }
func (h futureHeap) Less(i, j int) bool {
	if h[i].deliverAt.Equal(h[j].deliverAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].deliverAt.Before(h[j].deliverAt)
}
func (h futureHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *futureHeap) Push(x any)   { *h = append(*h, x.(*futureEvent)) }
func (h *futureHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
