package sim

import (
	"testing"
	"time"
)

func TestServiceQueue_Dequeue_ReturnsInsertionOrder(t *testing.T) {
	// GIVEN a queue with arrivals [3, 1, 2] enqueued in that order
	q := NewServiceQueue(3)
	for _, id := range []int{3, 1, 2} {
		q.Enqueue(QueueEntry{ArrivalID: id, EnqueuedAt: time.Now()})
	}

	// WHEN all are dequeued
	var got []int
	for q.Len() > 0 {
		e, ok := q.Dequeue()
		if !ok {
			t.Fatal("Dequeue reported empty with Len() > 0")
		}
		got = append(got, e.ArrivalID)
	}

	// THEN they come out in insertion order, not ID order
	want := []int{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dequeue order[%d]: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestServiceQueue_Dequeue_Empty_ReportsFalse(t *testing.T) {
	// GIVEN an empty queue
	q := NewServiceQueue(1)

	// WHEN Dequeue() is called
	_, ok := q.Dequeue()

	// THEN it reports false
	if ok {
		t.Error("Dequeue on empty queue: got ok=true")
	}
	if q.Len() != 0 {
		t.Errorf("Len on empty queue: got %d, want 0", q.Len())
	}
}

func TestServiceQueue_Enqueue_Full_Panics(t *testing.T) {
	// GIVEN a full queue of capacity 1
	q := NewServiceQueue(1)
	q.Enqueue(QueueEntry{ArrivalID: 1})

	// WHEN another entry is enqueued
	defer func() {
		// THEN it panics: the wait-slot semaphore must have prevented this
		if recover() == nil {
			t.Error("Enqueue on full queue did not panic")
		}
	}()
	q.Enqueue(QueueEntry{ArrivalID: 2})
}

func TestServiceQueue_Snapshot_IsStableAcrossMutations(t *testing.T) {
	// GIVEN a snapshot taken with [1, 2] queued
	q := NewServiceQueue(3)
	q.Enqueue(QueueEntry{ArrivalID: 1})
	q.Enqueue(QueueEntry{ArrivalID: 2})
	snap := q.Snapshot()

	// WHEN the queue changes
	q.Dequeue()
	q.Enqueue(QueueEntry{ArrivalID: 3})

	// THEN the earlier snapshot still shows [1, 2] and a new one shows [2, 3]
	if len(snap) != 2 || snap[0] != 1 || snap[1] != 2 {
		t.Errorf("old snapshot changed: %v", snap)
	}
	now := q.Snapshot()
	if len(now) != 2 || now[0] != 2 || now[1] != 3 {
		t.Errorf("new snapshot: got %v, want [2 3]", now)
	}
}

func TestServiceQueue_String(t *testing.T) {
	q := NewServiceQueue(3)
	if got := q.String(); got != "[]" {
		t.Errorf("empty String(): got %q", got)
	}
	q.Enqueue(QueueEntry{ArrivalID: 4})
	q.Enqueue(QueueEntry{ArrivalID: 7})
	if got := q.String(); got != "[4 7]" {
		t.Errorf("String(): got %q, want %q", got, "[4 7]")
	}
}

func TestServiceQueue_Dequeue_KeepsEnqueueTime(t *testing.T) {
	q := NewServiceQueue(2)
	at := time.Now().Add(-time.Second)
	q.Enqueue(QueueEntry{ArrivalID: 9, EnqueuedAt: at})
	e, _ := q.Dequeue()
	if !e.EnqueuedAt.Equal(at) {
		t.Errorf("EnqueuedAt: got %v, want %v", e.EnqueuedAt, at)
	}
}
