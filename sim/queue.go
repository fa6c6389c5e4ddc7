// Implements the ServiceQueue, which holds arrivals waiting for a service bay.
// Arrivals are enqueued once they win a wait slot and the queue mutex.

package sim

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
)

// QueueEntry is one arrival waiting in the service queue.
type QueueEntry struct {
	ArrivalID  int
	EnqueuedAt time.Time
}

// ServiceQueue is the shared FIFO of the waiting area, bounded by capacity.
//
// Enqueue and Dequeue must only be called while holding the queue mutex
// permit; the queue itself does no locking for mutation. After every mutation
// the current contents are published as an immutable snapshot so that
// observers (completion monitor, status readers) can read them without taking
// the mutex.
type ServiceQueue struct {
	capacity  int
	entries   deque.Deque[QueueEntry]
	published atomic.Pointer[[]int]
}

// NewServiceQueue creates an empty queue holding at most capacity entries.
func NewServiceQueue(capacity int) *ServiceQueue {
	q := &ServiceQueue{capacity: capacity}
	q.publish()
	return q
}

// Enqueue appends an arrival to the back of the queue.
// Panics if the queue is already at capacity: the wait-slot semaphore
// guarantees that never happens in a correct protocol.
func (q *ServiceQueue) Enqueue(e QueueEntry) {
	if q.entries.Len() >= q.capacity {
		panic(fmt.Sprintf("ServiceQueue.Enqueue: queue full (capacity %d)", q.capacity))
	}
	q.entries.PushBack(e)
	q.publish()
}

// Dequeue removes the entry at the front of the queue.
// Reports false if the queue is empty.
func (q *ServiceQueue) Dequeue() (QueueEntry, bool) {
	if q.entries.Len() == 0 {
		return QueueEntry{}, false
	}
	e := q.entries.PopFront()
	q.publish()
	return e, true
}

// Len returns the number of entries as of the last mutation.
func (q *ServiceQueue) Len() int {
	return len(*q.published.Load())
}

// Capacity returns the maximum number of entries.
func (q *ServiceQueue) Capacity() int {
	return q.capacity
}

// Snapshot returns the arrival IDs in service order as of the last mutation.
// The returned slice is shared and MUST NOT be modified.
func (q *ServiceQueue) Snapshot() []int {
	return *q.published.Load()
}

func (q *ServiceQueue) String() string {
	ids := q.Snapshot()
	var sb strings.Builder
	sb.WriteString("[")
	for i, id := range ids {
		sb.WriteString(fmt.Sprint(id))
		if i < len(ids)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

func (q *ServiceQueue) publish() {
	ids := make([]int, q.entries.Len())
	for i := range ids {
		ids[i] = q.entries.At(i).ArrivalID
	}
	q.published.Store(&ids)
}
