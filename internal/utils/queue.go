package utils

import (
	"sync"
)

// DefaultQueueLimit bounds queues created with a non-positive limit.
const DefaultQueueLimit = 10000

// Queue is a thread-safe FIFO that drops its oldest items once the limit
// is reached. Browser event listeners push into it from their own
// goroutines while the owner reads snapshots.
type Queue[T any] struct {
	items   []T
	limit   int
	dropped int
	mutex   sync.Mutex
}

// NewQueue creates a queue holding at most limit items.
func NewQueue[T any](limit int) *Queue[T] {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Queue[T]{items: make([]T, 0), limit: limit}
}

// Enqueue adds an item to the end of the queue
func (q *Queue[T]) Enqueue(item T) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.items) >= q.limit {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, item)
}

// Snapshot returns a copy of the queued items without removing them.
func (q *Queue[T]) Snapshot() []T {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Drain removes and returns every queued item.
func (q *Queue[T]) Drain() []T {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	out := q.items
	q.items = make([]T, 0)
	return out
}

// Dropped returns how many items were discarded to respect the limit.
func (q *Queue[T]) Dropped() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.dropped
}

// Size returns the number of items in the queue
func (q *Queue[T]) Size() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}
