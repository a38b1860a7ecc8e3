package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/moffa90/go-vscp/protocol"
)

// ErrClosed is returned by clients and queues after Close.
var ErrClosed = errors.New("transport closed")

// Queue is a bounded FIFO of received events. It is safe for concurrent
// use by one producer and any number of consumers.
type Queue struct {
	mu      sync.Mutex
	events  []*protocol.Event
	size    int
	filter  *protocol.Filter
	dropped int
	closed  bool

	notify chan struct{}
	done   chan struct{}
}

// NewQueue creates a queue holding at most size events. Events rejected by
// filter are discarded on Push; a nil filter accepts everything.
func NewQueue(size int, filter *protocol.Filter) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		size:   size,
		filter: filter,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push adds ev, dropping the oldest event when full. It reports whether ev
// was queued.
func (q *Queue) Push(ev *protocol.Event) bool {
	if ev == nil || !q.filter.Match(ev) {
		return false
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if len(q.events) >= q.size {
		q.events[0] = nil
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Receive returns the oldest event, waiting until one arrives, ctx is done
// or the queue is closed. Events queued before Close are still returned.
func (q *Queue) Receive(ctx context.Context) (*protocol.Event, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events[0] = nil
			q.events = q.events[1:]
			q.mu.Unlock()
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrClosed
		}

		select {
		case <-q.notify:
		case <-q.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Count returns the number of queued events.
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Clear discards all queued events.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
}

// Close wakes all waiting receivers. Further pushes are ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}
