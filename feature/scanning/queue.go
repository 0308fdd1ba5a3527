package scanning

import (
	"sync"
	"time"
)

// request is one raw read waiting in the queue.
type request struct {
	barcode  string
	received time.Time
}

// queue is an unbounded FIFO. Producers never block; the single consumer
// waits on the signal channel, which coalesces wake-ups (buffer of one).
type queue struct {
	mu     sync.Mutex
	items  []request
	closed bool
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{
		items:  make([]request, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// enqueue appends r and reports false once the queue is closed.
func (q *queue) enqueue(r request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, r)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryDequeue pops the front request without blocking.
func (q *queue) tryDequeue() (request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return request{}, false
	}
	r := q.items[0]
	q.items[0] = request{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return r, true
}

// wait returns the channel signalling that requests may be available.
// It is closed by close.
func (q *queue) wait() <-chan struct{} {
	return q.signal
}

func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close stops intake and wakes the consumer. It returns how many requests
// were still queued.
func (q *queue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}
	q.closed = true
	close(q.signal)
	return len(q.items)
}
