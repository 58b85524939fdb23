// Package queue hands pass requests from triggers (cron, HTTP) to the
// pass runners.
package queue

import (
	"context"
	"strconv"
	"sync"

	"github.com/okian/waiverintel/internal/domain/types"
	"github.com/okian/waiverintel/pkg/metrics"
)

const (
	defaultQueueCapacity = 256
)

// Request is the payload flowing through the queue.
type Request = types.PassRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. It returns false when the queue is full or
	// closed, or when the same (league, week) is already pending.
	Enqueue(ctx context.Context, r Request) bool
	// Dequeue returns a channel of requests, closed when the queue is
	// closed and drained or ctx ends.
	Dequeue(ctx context.Context) <-chan Request
	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel. Pending
// requests for the same (league, week) are coalesced.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	mu      sync.RWMutex
	closed  bool
	pending map[string]struct{}
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	q.pending = make(map[string]struct{})
	metrics.UpdateQueueSize(0)
	return q
}

func pendingKey(r Request) string {
	return r.LeagueID + "/" + strconv.Itoa(r.Week)
}

// Enqueue adds a request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return false
	}
	k := pendingKey(r)
	if _, dup := q.pending[k]; dup {
		metrics.RecordQueueRejected("duplicate")
		return false
	}

	select {
	case q.requests <- r:
		q.pending[k] = struct{}{}
		metrics.UpdateQueueSize(len(q.requests))
		return true
	case <-ctx.Done():
		metrics.RecordQueueRejected("context_cancelled")
		return false
	default:
		metrics.RecordQueueRejected("full")
		return false
	}
}

// Dequeue returns a channel that will receive requests as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	out := make(chan Request)
	go func() {
		defer close(out)
		for {
			select {
			case r, ok := <-q.requests:
				if !ok {
					return
				}
				q.mu.Lock()
				delete(q.pending, pendingKey(r))
				metrics.UpdateQueueSize(len(q.requests))
				q.mu.Unlock()
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len(context.Context) int {
	return len(q.requests)
}

// Close stops accepting requests. Pending ones are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
