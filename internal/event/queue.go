package event

import (
	"context"
	"sync"
	"time"
)

// Queue is an unbounded multi-producer, single-consumer queue of control
// events. Put never blocks; Get waits up to a timeout so the consumer can
// do periodic work while idle.
type Queue struct {
	mu    sync.Mutex
	items []Control
	ready chan struct{}
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Put appends e. It is safe to call from any goroutine.
func (q *Queue) Put(e Control) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *Queue) pop() (Control, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	e := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return e, true
}

// Get removes and returns the oldest event, waiting at most timeout for one
// to arrive. It reports false on timeout or when ctx is done. Only one
// goroutine may call Get.
func (q *Queue) Get(ctx context.Context, timeout time.Duration) (Control, bool) {
	if e, ok := q.pop(); ok {
		return e, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-q.ready:
			if e, ok := q.pop(); ok {
				return e, true
			}
		case <-timer.C:
			return q.pop()
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
